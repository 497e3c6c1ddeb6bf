package nxdnradio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInboundDataExtractsPeerAndPayload(t *testing.T) {
	body := append([]byte("gGU00006"), make([]byte, 6)...)
	body = append(body, []byte("hello")...)

	data, err := ParseInboundData(body)
	require.NoError(t, err)
	assert.Equal(t, "00006", data.Peer.String())
	assert.Equal(t, "hello", string(data.Data))
}

func TestParseInboundDataRejectsShortFrame(t *testing.T) {
	_, err := ParseInboundData([]byte("short"))
	assert.ErrorIs(t, err, ErrIllegalArgument)
}

func TestDeviceStateLED(t *testing.T) {
	led, err := DeviceStateLED([]byte("JA\x82"))
	require.NoError(t, err)
	assert.Equal(t, LedReceiving, led)
}
