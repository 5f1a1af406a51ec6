package service

import (
	"context"
	"net/http"
	"testing"

	"Member_Registry/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUnitCode(t *testing.T) {
	tests := map[string]string{
		"um0754":     "UM 0754",
		"UM  0754":   "UM 0754",
		" 0754 ":     "UM 0754",
		"Um 01 234":  "UM 01 234",
		"UM":         "",
		"   ":        "",
		"UM 0754 A ": "UM 0754 A",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeUnitCode(in), in)
	}
}

func TestUnitService(t *testing.T) {
	db, audit := setupSQLiteTestDB(t)
	svc := NewUnitService(db, audit)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, &UnitInput{Code: " um "})
	assert.ErrorIs(t, err, ErrUnitCodeRequired)

	u, err := svc.Create(ctx, admin, &UnitInput{Code: "um0754", Name: strPtr("Brigada")})
	require.NoError(t, err)
	assert.Equal(t, "UM 0754", u.Code)
	assert.True(t, u.IsActive)

	_, err = svc.Patch(ctx, admin, u.ID, map[string]any{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	u, err = svc.Patch(ctx, admin, u.ID, map[string]any{"is_active": false})
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Patch(ctx, admin, 999, map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, svc.Delete(ctx, admin, u.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, u.ID), ErrNotFound)
}

func TestActivityTypeService_Import(t *testing.T) {
	db, audit := setupSQLiteTestDB(t)
	svc := NewActivityTypeService(db, audit)
	ctx := context.Background()

	sedinta, err := svc.Create(ctx, admin, &ActivityTypeInput{Name: "Ședință"})
	require.NoError(t, err)
	bal, err := svc.Create(ctx, admin, &ActivityTypeInput{Name: "Bal"})
	require.NoError(t, err)

	t.Run("invalid mode and format", func(t *testing.T) {
		_, err := svc.Import(ctx, admin, nil, FormatCSV, "upsert")
		assert.ErrorIs(t, err, ErrInvalidMode)
		_, err = svc.Import(ctx, admin, nil, "xml", "")
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("replace deactivates types missing from file", func(t *testing.T) {
		data := "ID,Denumire,Categorie,Activ\n" +
			"1,Ședință,Intern,da\n" +
			",Excursie,Extern,\n" +
			",,x,da\n"
		res, err := svc.Import(ctx, admin, []byte(data), FormatCSV, "replace")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, 1, res.Inserted)
		assert.Equal(t, 1, res.Skipped)
		assert.True(t, res.Deactivated)

		list, err := svc.List(ctx)
		require.NoError(t, err)
		active := map[string]bool{}
		for _, tp := range list {
			active[tp.Name] = tp.IsActive
		}
		assert.Equal(t, map[string]bool{"Ședință": true, "Bal": false, "Excursie": true}, active)
	})

	t.Run("merge from json", func(t *testing.T) {
		data := []byte(`[{"name":"Bal","isActive":true}]`)
		res, err := svc.Import(ctx, admin, data, FormatJSON, "")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Updated)
		assert.False(t, res.Deactivated)
	})

	out, err := svc.Export(ctx, FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Excursie")

	_, err = svc.Patch(ctx, admin, sedinta.ID, map[string]any{"foo": 1})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)
	require.NoError(t, svc.Delete(ctx, admin, bal.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, bal.ID), ErrNotFound)
}

func TestValueListService(t *testing.T) {
	db, audit := setupSQLiteTestDB(t)
	svc := NewValueListService(db, audit)
	ctx := context.Background()

	ranks, err := svc.Get(ctx, model.ValueListRanks)
	require.NoError(t, err)
	assert.Len(t, ranks, len(model.DefaultRanks))

	_, err = svc.Get(ctx, "colors")
	status, _ := StatusOf(err)
	assert.Equal(t, http.StatusNotFound, status)

	got, err := svc.Replace(ctx, admin, model.ValueListProfiles, []string{" Medical ", "", "Juridic", "Medical"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Medical", "Juridic"}, got)

	profiles, err := svc.Get(ctx, model.ValueListProfiles)
	require.NoError(t, err)
	assert.Equal(t, []string{"Medical", "Juridic"}, profiles)

	assert.Contains(t, auditActions(t, db, audit), ActionUpdateValueList)
}
