package crc32check

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	data := []byte("jsonpayloadjson")
	wrapped := Wrap(data)
	unwrapped, err := Unwrap(wrapped)
	assert.NoError(t, err)
	assert.Equal(t, data, unwrapped)
}

func TestUnwrapDetectsCorruption(t *testing.T) {
	wrapped := Wrap([]byte("hello"))
	wrapped[0] ^= 0xFF
	_, err := Unwrap(wrapped)
	assert.Error(t, err)
}
