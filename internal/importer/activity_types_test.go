package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Member_Registry/internal/model"
)

func TestParseActivityTypesCSV(t *testing.T) {
	rows, errs, err := ParseActivityTypesCSV("ID,Denumire,Categorie,Activ\n1,Ședință,Intern,Da\n,Excursie,,nu\n,,x,da\n,Comemorare,,\n")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, TypeRow{Row: 2, ID: "1", Name: "Ședință", Category: "Intern", IsActive: true}, rows[0])
	assert.False(t, rows[1].IsActive)
	assert.True(t, rows[2].IsActive)
	assert.Equal(t, []RowError{{Row: 4, Field: "name", Message: "Numele este obligatoriu"}}, errs)

	_, _, err = ParseActivityTypesCSV("categorie\nx\n")
	assert.ErrorIs(t, err, ErrMissingNameColumn)
}

func TestParseActivityTypesCSV_DefaultActive(t *testing.T) {
	rows, _, err := ParseActivityTypesCSV("nume\nSeară culturală\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsActive)
}

func TestParseActivityTypesJSON(t *testing.T) {
	data := []byte(`[{"id":"3","name":" Excursie ","category":"Extern","isActive":false},{"name":""},{"id":7,"name":"Bal"}]`)
	rows, errs, err := ParseActivityTypesJSON(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, TypeRow{Row: 1, ID: "3", Name: "Excursie", Category: "Extern", IsActive: false}, rows[0])
	assert.Equal(t, TypeRow{Row: 3, ID: "7", Name: "Bal", IsActive: true}, rows[1])
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Row)

	_, _, err = ParseActivityTypesJSON([]byte("{"))
	assert.Error(t, err)
}

func TestPlanActivityTypes(t *testing.T) {
	existing := []model.ActivityType{
		{ID: 1, Name: "Ședință"},
		{ID: 2, Name: "Excursie  de   grup"},
	}
	rows := []TypeRow{
		{ID: "1", Name: "Ședință lunară"},
		{Name: "excursie de grup"},
		{ID: "99", Name: "Bal"},
	}

	plan := PlanActivityTypes(rows, existing)
	require.Len(t, plan.Updates, 2)
	assert.Equal(t, uint64(1), plan.Updates[0].ID)
	assert.Equal(t, uint64(2), plan.Updates[1].ID)
	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, "Bal", plan.Inserts[0].Name)
}
