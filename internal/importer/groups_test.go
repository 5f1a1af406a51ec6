package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupMembers(t *testing.T) {
	text := "member_id,notes\n01001,nota\nm3\n01001\n,gol\n99999\n"

	res, err := ParseGroupMembers(text, testMembers())
	require.NoError(t, err)

	assert.Equal(t, []string{"m1", "m3"}, res.ValidMemberIDs)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"Rând 5: Lipsește member_id", "Rând 6: Membru 99999 nu există"}, res.Errors)
}

func TestParseGroupMembers_NoHeader(t *testing.T) {
	res, err := ParseGroupMembers("01002\n01003\n", testMembers())
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3"}, res.ValidMemberIDs)
	assert.Empty(t, res.Errors)
}
