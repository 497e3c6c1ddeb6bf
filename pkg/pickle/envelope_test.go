package pickle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickleRoundTrip(t *testing.T) {
	codec := NewCodec(true)
	data, err := codec.Pickle(map[string]any{"k": float64(1)})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, codec.Unpickle(data, &out))
	assert.EqualValues(t, 1, out["k"])
}

func TestPickleRoundTripNoCompression(t *testing.T) {
	codec := NewCodec(false)
	data, err := codec.Pickle([]int{1, 2, 3})
	require.NoError(t, err)

	var out []int
	require.NoError(t, codec.Unpickle(data, &out))
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	codec := NewCodec(true)
	data, err := codec.PickleEnvelope(7, map[string]any{"trigger": "about-you"}, map[string]any{"x": float64(1)})
	require.NoError(t, err)

	env, err := codec.UnpickleEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, 7, env.Counter)
	assert.Equal(t, "about-you", env.Trigger())
	assert.Equal(t, map[string]any{"x": float64(1)}, env.Payload)
}

func TestAllowedSizeWithMargin(t *testing.T) {
	codec := NewCodec(false)
	small := "hello"
	ok, err := codec.AllowedSizeWithMargin(small, 4000)
	require.NoError(t, err)
	assert.True(t, ok)

	big := make([]byte, 5000)
	ok, err = codec.AllowedSizeWithMargin(big, 4000)
	require.NoError(t, err)
	assert.False(t, ok)
}
