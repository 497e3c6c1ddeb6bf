package nxdnradio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBaudrateKnownRate(t *testing.T) {
	cmd, err := SetBaudrate(57600)
	require.NoError(t, err)
	assert.Equal(t, []byte{'O', '8'}, cmd.Body)
}

func TestSetBaudrateUnknownRate(t *testing.T) {
	_, err := SetBaudrate(12345)
	assert.ErrorIs(t, err, ErrIllegalBaudrate)
}

func TestLongMessage2UnitBuildsAddressedBody(t *testing.T) {
	target, err := ParseUnitID("00006")
	require.NoError(t, err)
	cmd := LongMessage2Unit(target, []byte("payload"))
	assert.Equal(t, "gGU00006payload", string(cmd.Body))
}

func TestClassifyOpcodes(t *testing.T) {
	target, _ := ParseUnitID("00006")
	cases := []struct {
		name string
		body []byte
		want Opcode
	}{
		{"short", ShortMessage2Unit(target, nil).Body, OpShortMessage},
		{"long", LongMessage2Unit(target, nil).Body, OpLongMessage},
		{"status", SetUnitStatus(target, nil).Body, OpStatusMessage},
		{"device-state", []byte("JA\x80"), OpDeviceState},
		{"display", []byte("JEhello"), OpDisplayContent},
		{"confirm-success", []byte{ConfirmSuccess}, OpConfirmSuccess},
		{"confirm-failure", []byte{ConfirmFailure}, OpConfirmFailure},
		{"unknown", []byte("zzz"), OpUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.body))
		})
	}
}
