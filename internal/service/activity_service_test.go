package service

import (
	"context"
	"net/http"
	"testing"

	"Member_Registry/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestActivityService_CreatePatchArchive(t *testing.T) {
	db, audit := setupSQLiteTestDB(t)
	svc := NewActivityService(db, audit)
	ctx := context.Background()
	require.NoError(t, db.Create(&model.ActivityType{ID: 3, Name: "Ședință", IsActive: true}).Error)

	a, err := svc.Create(ctx, editor, &ActivityInput{
		TypeID:   "3",
		Title:    strPtr("Adunare"),
		DateFrom: strPtr("2024-03-15T10:00:00Z"),
		DateTo:   strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "ACT-0001", a.ID)
	require.NotNil(t, a.TypeID)
	assert.Equal(t, uint64(3), *a.TypeID)
	assert.Equal(t, "2024-03-15", *a.DateFrom)
	assert.Nil(t, a.DateTo)
	require.NotNil(t, a.CreatedBy)
	assert.Equal(t, editor.UserID, *a.CreatedBy)

	b, err := svc.Create(ctx, editor, &ActivityInput{TypeID: float64(3)})
	require.NoError(t, err)
	assert.Equal(t, "ACT-0002", b.ID)

	a, err = svc.Patch(ctx, editor, "ACT-0001", map[string]any{"location": "Sala mare", "ignored": true})
	require.NoError(t, err)
	assert.Equal(t, "Sala mare", *a.Location)

	_, err = svc.Patch(ctx, editor, "ACT-9999", map[string]any{"location": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Archive(ctx, admin, "ACT-0001"))
	a, err = svc.Get(ctx, "ACT-0001")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityStatusArchived, a.Status)
	require.NotNil(t, a.ArchivedBy)
	assert.Equal(t, admin.UserID, *a.ArchivedBy)

	require.NoError(t, svc.Reactivate(ctx, admin, "ACT-0001"))
	a, err = svc.Get(ctx, "ACT-0001")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityStatusActive, a.Status)
	assert.Nil(t, a.ArchivedAt)

	assert.ErrorIs(t, svc.Archive(ctx, admin, "ACT-9999"), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, admin, "ACT-0002"))
	assert.ErrorIs(t, svc.Delete(ctx, admin, "ACT-0002"), ErrNotFound)
}

func TestActivityService_Participants(t *testing.T) {
	db, audit := setupSQLiteTestDB(t)
	svc := NewActivityService(db, audit)
	ctx := context.Background()
	seedMember(t, db, "m1", "00001", "Popescu", "Ion")
	seedMember(t, db, "m2", "00002", "Ionescu", "Maria")
	a, err := svc.Create(ctx, editor, &ActivityInput{Title: strPtr("Adunare")})
	require.NoError(t, err)

	_, err = svc.AddParticipants(ctx, editor, a.ID, nil)
	assert.ErrorIs(t, err, ErrMemberIDsRequired)
	_, err = svc.AddParticipants(ctx, editor, "ACT-9999", []string{"m1"})
	assert.ErrorIs(t, err, ErrNotFound)

	added, err := svc.AddParticipants(ctx, editor, a.ID, []string{"m1", "m2"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	added, err = svc.AddParticipants(ctx, editor, a.ID, []string{"m1"})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	a, err = svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.ParticipantsCount)

	t.Run("update", func(t *testing.T) {
		require.NoError(t, svc.UpdateParticipant(ctx, editor, a.ID, &ParticipantPatch{
			MemberID: "m1", Status: strPtr(model.ParticipantOrganizer), Note: strPtr("prezidiu"),
		}))
		list, err := svc.Participants(ctx, a.ID)
		require.NoError(t, err)
		var m1 model.ActivityParticipant
		for _, p := range list {
			if p.MemberID == "m1" {
				m1 = p
			}
		}
		assert.Equal(t, model.ParticipantOrganizer, m1.Status)
		require.NotNil(t, m1.Note)
		assert.Equal(t, "prezidiu", *m1.Note)

		err = svc.UpdateParticipant(ctx, editor, a.ID, &ParticipantPatch{MemberID: "m1", Status: strPtr("absent")})
		status, _ := StatusOf(err)
		assert.Equal(t, http.StatusBadRequest, status)

		assert.ErrorIs(t, svc.UpdateParticipant(ctx, editor, a.ID, &ParticipantPatch{}), ErrMemberIDRequired)
		assert.NoError(t, svc.UpdateParticipant(ctx, editor, a.ID, &ParticipantPatch{MemberID: "m1"}))
		assert.ErrorIs(t, svc.UpdateParticipant(ctx, editor, a.ID,
			&ParticipantPatch{MemberID: "ghost", Note: strPtr("x")}), ErrNotFound)
	})

	t.Run("remove recounts", func(t *testing.T) {
		require.NoError(t, svc.RemoveParticipant(ctx, editor, a.ID, "m2"))
		assert.ErrorIs(t, svc.RemoveParticipant(ctx, editor, a.ID, "m2"), ErrNotFound)
		got, err := svc.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ParticipantsCount)
	})

	actions := auditActions(t, db, audit)
	assert.Contains(t, actions, ActionAddParticipants)
	assert.Contains(t, actions, ActionRemoveParticipants)
}

func TestActivityService_ImportParticipants(t *testing.T) {
	db, audit := setupSQLiteTestDB(t)
	svc := NewActivityService(db, audit)
	ctx := context.Background()
	seedMember(t, db, "m1", "01001", "Popescu", "Ion")
	seedMember(t, db, "m2", "01002", "Ionescu", "Maria")
	seedMember(t, db, "m3", "01003", "Georgescu", "Dan")
	a, err := svc.Create(ctx, editor, &ActivityInput{Title: strPtr("Adunare")})
	require.NoError(t, err)
	_, err = svc.AddParticipants(ctx, editor, a.ID, []string{"m3"})
	require.NoError(t, err)

	text := "cod_membru,nume,rol,observatii\n" +
		"01001,,organizator,prezidiu\n" +
		",Ionescu Maria,,\n" +
		"01003,,,\n" +
		"09999,,,\n"

	preview, err := svc.PreviewParticipants(ctx, a.ID, text)
	require.NoError(t, err)
	assert.Len(t, preview.Valid, 2)
	assert.Len(t, preview.Duplicates, 1)
	assert.Len(t, preview.Missing, 1)

	// 预览不写库
	list, err := svc.Participants(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	res, err := svc.ImportParticipants(ctx, editor, a.ID, text)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)

	list, err = svc.Participants(ctx, a.ID)
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, p := range list {
		statuses[p.MemberID] = p.Status
	}
	assert.Equal(t, map[string]string{
		"m1": model.ParticipantOrganizer,
		"m2": model.ParticipantAttended,
		"m3": model.ParticipantAttended,
	}, statuses)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ParticipantsCount)

	_, err = svc.PreviewParticipants(ctx, a.ID, "rol,observatii\nx,y\n")
	status, _ := StatusOf(err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestActivityService_Export(t *testing.T) {
	db, audit := setupSQLiteTestDB(t)
	svc := NewActivityService(db, audit)
	ctx := context.Background()
	seedMember(t, db, "m1", "00001", "Popescu", "Ion")
	a, err := svc.Create(ctx, editor, &ActivityInput{Title: strPtr("Adunare"), DateFrom: strPtr("2024-03-15")})
	require.NoError(t, err)
	_, err = svc.AddParticipants(ctx, editor, a.ID, []string{"m1"})
	require.NoError(t, err)

	out, err := svc.Export(ctx, editor, true)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Adunare")
	assert.Contains(t, string(out), "Popescu")

	out, err = svc.ExportParticipants(ctx, editor, a.ID)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Popescu")

	_, err = svc.ExportParticipants(ctx, editor, "ACT-9999")
	assert.ErrorIs(t, err, ErrNotFound)
}
