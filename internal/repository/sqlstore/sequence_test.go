package sqlstore

import (
	"context"
	"fmt"
	"testing"

	"Member_Registry/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_MemberCodes(t *testing.T) {
	ctx := context.Background()

	t.Run("empty table starts at 00001", func(t *testing.T) {
		db := setupSQLiteTestDB(t)
		seq := &SequenceRepository{DB: db}
		code, err := seq.NextMemberCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "00001", code)
	})

	t.Run("sequential inserts are strictly increasing without gaps", func(t *testing.T) {
		db := setupSQLiteTestDB(t)
		seq := &SequenceRepository{DB: db}
		repo := &MemberRepository{DB: db}

		var codes []string
		for i := 0; i < 12; i++ {
			code, err := seq.NextMemberCode(ctx)
			require.NoError(t, err)
			require.NoError(t, repo.Create(ctx, &model.Member{
				ID: code + "-id", MemberCode: code, LastName: "L", FirstName: "F", Status: model.MemberStatusActive,
			}))
			codes = append(codes, code)
		}
		assert.Equal(t, "00001", codes[0])
		assert.Equal(t, "00010", codes[9])
		assert.Equal(t, "00012", codes[11])
		for i := 1; i < len(codes); i++ {
			prev, _ := ParseSuffix(codes[i-1], "")
			cur, _ := ParseSuffix(codes[i], "")
			assert.Equal(t, prev+1, cur)
			assert.Len(t, codes[i], 5)
		}
	})

	t.Run("batch continues after max and skips legacy codes", func(t *testing.T) {
		db := setupSQLiteTestDB(t)
		seedMember(t, db, "a", "00041", "A", "A")
		seedMember(t, db, "b", "LEG-7", "B", "B")
		seedMember(t, db, "c", "00007", "C", "C")

		codes, err := (&SequenceRepository{DB: db}).NextMemberCodes(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"00042", "00043", "00044"}, codes)
	})

	t.Run("codes wider than five digits are ignored", func(t *testing.T) {
		db := setupSQLiteTestDB(t)
		seedMember(t, db, "a", "00007", "A", "A")
		seedMember(t, db, "b", "123456", "B", "B")

		code, err := (&SequenceRepository{DB: db}).NextMemberCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "00008", code)
	})

	t.Run("max found past the first scan page", func(t *testing.T) {
		db := setupSQLiteTestDB(t)
		for i := 0; i < sequenceScanLimit+10; i++ {
			code := fmt.Sprintf("Z%04d", i)
			seedMember(t, db, "legacy-"+code, code, "L", "F")
		}
		seedMember(t, db, "real", "00031", "R", "R")

		code, err := (&SequenceRepository{DB: db}).NextMemberCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "00032", code)
	})
}

func TestSequence_PaymentAndActivity(t *testing.T) {
	ctx := context.Background()
	db := setupSQLiteTestDB(t)
	seq := &SequenceRepository{DB: db}

	code, err := seq.NextPaymentCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P-000001", code)

	require.NoError(t, db.Create(&model.Payment{PaymentCode: "P-000009", MemberID: "m", Date: "2024-01-01"}).Error)
	code, err = seq.NextPaymentCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P-000010", code)

	require.NoError(t, db.Create(&model.Payment{PaymentCode: "P-9999999", MemberID: "m", Date: "2024-01-01"}).Error)
	code, err = seq.NextPaymentCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P-000010", code)

	id, err := seq.NextActivityID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ACT-0001", id)

	require.NoError(t, db.Create(&model.Activity{ID: "ACT-9999", Status: model.ActivityStatusActive}).Error)
	require.NoError(t, db.Create(&model.Activity{ID: "ACT-10000", Status: model.ActivityStatusActive}).Error)
	id, err = seq.NextActivityID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ACT-10001", id)
}

func TestSequence_QueryShape(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT "payment_code" FROM "payments" WHERE payment_code LIKE`).
		WillReturnRows(sqlmock.NewRows([]string{"payment_code"}).AddRow("P-000123"))

	code, err := (&SequenceRepository{DB: db}).NextPaymentCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "P-000124", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseSuffix(t *testing.T) {
	n, ok := ParseSuffix("ACT-0042", "ACT-")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = ParseSuffix("ACT-", "ACT-")
	assert.False(t, ok)
	_, ok = ParseSuffix("P-12a", "P-")
	assert.False(t, ok)
	_, ok = ParseSuffix("X-1", "P-")
	assert.False(t, ok)
}
