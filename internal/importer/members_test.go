package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMembers(t *testing.T) {
	text := "ID Membru;Nume;Prenume;Data Nașterii;Grad;UM;Profil Principal;An Înscriere;Telefon;Email;CNP\n" +
		"01001;Popescu;Ion;15.03.1950;Colonel;UM 0123;Comandă;2010;0722 123 456;ion@example.ro;1500315123456\n" +
		";Ionescu;Maria;1955-07-01;Maior;UM 0456;Medical;;;;\n" +
		";;Dan;32.13.1950;Maior;UM 1;Medical;1800;abc;nu-email;123\n"

	res, err := ParseMembers(text)
	require.NoError(t, err)

	require.Len(t, res.Members, 2)
	first := res.Members[0]
	assert.Equal(t, "01001", first.MemberCode)
	assert.Equal(t, "1950-03-15", first.DateOfBirth)
	require.NotNil(t, first.BranchEnrollmentYear)
	assert.Equal(t, 2010, *first.BranchEnrollmentYear)
	assert.Equal(t, "1955-07-01", res.Members[1].DateOfBirth)
	assert.Empty(t, res.Members[1].MemberCode)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 4, res.Errors[0].Row)
	msg := res.Errors[0].Message
	assert.Contains(t, msg, "Data nașterii invalidă: 32.13.1950")
	assert.Contains(t, msg, "An invalid pentru An Înscriere: 1800")
	assert.Contains(t, msg, "Nume lipsă")
	assert.Contains(t, msg, "Format telefon invalid")
	assert.Contains(t, msg, "Format email invalid")
	assert.Contains(t, msg, "CNP trebuie să aibă 13 caractere")
}

func TestParseMembers_EmptyCellRowsKeepNumbering(t *testing.T) {
	text := "Nume,Prenume,Grad,UM,Profil Principal\n" +
		",,,,\n" +
		"Popescu,,Maior,UM 1,Medical\n"
	res, err := ParseMembers(text)
	require.NoError(t, err)
	assert.Empty(t, res.Members)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
}

func TestParseMembers_MissingHeaders(t *testing.T) {
	_, err := ParseMembers("Nume,Prenume,Grad\nA,B,C\n")
	assert.EqualError(t, err, "Câmpuri obligatorii lipsă: UM, Profil Principal")
}

func TestParseMemberDate(t *testing.T) {
	for in, want := range map[string]string{
		"01.02.1950": "1950-02-01",
		"01/02/1950": "1950-02-01",
		"01-02-1950": "1950-02-01",
		"1950-02-01": "1950-02-01",
		"12/31/1950": "1950-12-31",
	} {
		got, ok := ParseMemberDate(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseMemberDate("ieri")
	assert.False(t, ok)
}
