package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Member_Registry/internal/model"
)

func testMembers() []model.Member {
	return []model.Member{
		{ID: "m1", MemberCode: "01001", FirstName: "Ion", LastName: "Popescu"},
		{ID: "m2", MemberCode: "01002", FirstName: "Ștefan", LastName: "Țăranu"},
		{ID: "m3", MemberCode: "01003", FirstName: "Maria", LastName: "Ionescu"},
		{ID: "m4", MemberCode: "01004", FirstName: " ", LastName: ""},
	}
}

func TestLocateParticipantColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   ParticipantColumns
	}{
		{
			name:   "template order",
			header: []string{"cod_membru", "nume", "rol", "observatii"},
			want:   ParticipantColumns{MemberCode: 0, MemberID: -1, MemberName: 1, Role: 2, Notes: 3},
		},
		{
			name:   "permuted and mixed case",
			header: []string{" Observatii ", "ROL", "Member_ID", "Nume Complet"},
			want:   ParticipantColumns{MemberCode: -1, MemberID: 2, MemberName: 3, Role: 1, Notes: 0},
		},
		{
			name:   "bom and quotes",
			header: []string{"\ufeff\"member_code\"", "name"},
			want:   ParticipantColumns{MemberCode: 0, MemberID: -1, MemberName: 1, Role: -1, Notes: -1},
		},
		{
			name:   "membru alone is a name column",
			header: []string{"membru", "note"},
			want:   ParticipantColumns{MemberCode: -1, MemberID: -1, MemberName: 0, Role: -1, Notes: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocateParticipantColumns(tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no member column", func(t *testing.T) {
		_, err := LocateParticipantColumns([]string{"rol", "observatii"})
		assert.ErrorIs(t, err, ErrNoMemberColumn)
	})
}

func TestParseParticipants(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := ParseParticipants("  \n\n")
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("semicolon delimiter", func(t *testing.T) {
		rows, err := ParseParticipants("cod_membru;nume;rol\n01001;Popescu Ion;organizator\n")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "01001", rows[0].MemberCode)
		assert.Equal(t, "Popescu Ion", rows[0].MemberName)
		assert.Equal(t, "organizator", rows[0].Role)
		assert.Equal(t, 2, rows[0].RowNumber)
	})

	t.Run("blank lines skipped and quoted commas kept", func(t *testing.T) {
		text := "\ufeffcod_membru,nume,observatii\r\n\r\n01001,\"Popescu, Ion\",x\r\n01003,,\r\n"
		rows, err := ParseParticipants(text)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Popescu, Ion", rows[0].MemberName)
		assert.Equal(t, 3, rows[1].RowNumber)
	})

	t.Run("rows with only empty cells are kept", func(t *testing.T) {
		text := "cod_membru,nume\n01001,Popescu Ion\n,,\n   \n01003,\n"
		rows, err := ParseParticipants(text)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 3, rows[1].RowNumber)
		assert.Empty(t, rows[1].MemberCode)
		assert.Equal(t, 4, rows[2].RowNumber)

		preview := ClassifyParticipants(rows, testMembers(), map[string]bool{})
		require.Len(t, preview.Missing, 1)
		assert.Equal(t, 3, preview.Missing[0].RowNumber)
	})
}

func TestMatchMember(t *testing.T) {
	members := testMembers()

	tests := []struct {
		name string
		row  ParticipantRow
		want string
	}{
		{"by id", ParticipantRow{MemberID: "m3"}, "m3"},
		{"by code", ParticipantRow{MemberCode: "01002"}, "m2"},
		{"id wins over code", ParticipantRow{MemberID: "m1", MemberCode: "01002"}, "m1"},
		{"name last first", ParticipantRow{MemberName: "Popescu Ion"}, "m1"},
		{"name first last", ParticipantRow{MemberName: "ion popescu"}, "m1"},
		{"diacritics ignored", ParticipantRow{MemberName: "Stefan Taranu"}, "m2"},
		{"partial name", ParticipantRow{MemberName: "Ionescu"}, "m3"},
		{"unknown code falls back to name", ParticipantRow{MemberCode: "99999", MemberName: "Maria Ionescu"}, "m3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchMember(members, tt.row)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}

	t.Run("ambiguous name takes first", func(t *testing.T) {
		// "ion" 同时出现在 Popescu Ion 和 Ionescu 里
		got := MatchMember(members, ParticipantRow{MemberName: "Ion"})
		require.NotNil(t, got)
		assert.Equal(t, "m1", got.ID)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, MatchMember(members, ParticipantRow{MemberName: "Vasilescu Dan"}))
		assert.Nil(t, MatchMember(members, ParticipantRow{MemberCode: "42"}))
		assert.Nil(t, MatchMember(members, ParticipantRow{}))
	})

	t.Run("blank normalized name never matches", func(t *testing.T) {
		assert.Nil(t, MatchMember(members, ParticipantRow{MemberName: "\u0301"}))
	})
}

func TestClassifyParticipants(t *testing.T) {
	rows := []ParticipantRow{
		{RowNumber: 2, MemberCode: "01001"},
		{RowNumber: 3, MemberName: "Popescu Ion"},
		{RowNumber: 4, MemberCode: "01002"},
		{RowNumber: 5, MemberName: "Nimeni"},
		{RowNumber: 6, MemberID: "m3"},
	}
	existing := map[string]bool{"m2": true}

	preview := ClassifyParticipants(rows, testMembers(), existing)

	require.Len(t, preview.Valid, 2)
	assert.Equal(t, "m1", preview.Valid[0].MatchedMemberID)
	assert.Equal(t, "m3", preview.Valid[1].MatchedMemberID)

	require.Len(t, preview.Duplicates, 2)
	assert.Equal(t, 3, preview.Duplicates[0].RowNumber)
	assert.Equal(t, 4, preview.Duplicates[1].RowNumber)

	require.Len(t, preview.Missing, 1)
	assert.Equal(t, 5, preview.Missing[0].RowNumber)

	assert.Equal(t, len(rows), len(preview.Valid)+len(preview.Duplicates)+len(preview.Missing))
}

func TestClassifyParticipants_ReimportIsAllDuplicates(t *testing.T) {
	rows := []ParticipantRow{{RowNumber: 2, MemberCode: "01001"}, {RowNumber: 3, MemberCode: "01003"}}
	first := ClassifyParticipants(rows, testMembers(), map[string]bool{})
	require.Len(t, first.Valid, 2)

	existing := map[string]bool{}
	for _, r := range first.Valid {
		existing[r.MatchedMemberID] = true
	}
	second := ClassifyParticipants(rows, testMembers(), existing)
	assert.Empty(t, second.Valid)
	assert.Len(t, second.Duplicates, 2)
}

func TestParticipantStatusFromRole(t *testing.T) {
	assert.Equal(t, model.ParticipantOrganizer, ParticipantStatusFromRole("Organizator"))
	assert.Equal(t, model.ParticipantOrganizer, ParticipantStatusFromRole("organizer"))
	assert.Equal(t, model.ParticipantInvited, ParticipantStatusFromRole("invitat"))
	assert.Equal(t, model.ParticipantAttended, ParticipantStatusFromRole(""))
	assert.Equal(t, model.ParticipantAttended, ParticipantStatusFromRole("participant"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "stefan taranu", Normalize("  Ștefan ȚĂRANU "))
	assert.Equal(t, "", Normalize(" \u0301 "))
}
