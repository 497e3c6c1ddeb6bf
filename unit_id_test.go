package nxdnradio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnitIDValid(t *testing.T) {
	id, err := ParseUnitID("00006")
	require.NoError(t, err)
	assert.Equal(t, "00006", id.String())
	assert.False(t, id.IsBroadcast())
}

func TestParseUnitIDBroadcast(t *testing.T) {
	id, err := ParseUnitID("00000")
	require.NoError(t, err)
	assert.True(t, id.IsBroadcast())
	assert.Equal(t, Broadcast, id)
}

func TestParseUnitIDRejectsWrongLength(t *testing.T) {
	_, err := ParseUnitID("123")
	assert.ErrorIs(t, err, ErrIllegalArgument)
}

func TestParseUnitIDRejectsNonDigits(t *testing.T) {
	_, err := ParseUnitID("0000a")
	assert.ErrorIs(t, err, ErrIllegalArgument)
}
