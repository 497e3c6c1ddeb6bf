// Package pickle implements the envelope encoding used for every payload
// carried over the radio: JSON serialization, optional zlib compression,
// and base64 encoding, composed as three narrow, independently-swappable
// capability interfaces.
package pickle

import (
	"encoding/base64"
	"encoding/json"
)

// Packer turns an arbitrary value into bytes and back. The JSON
// implementation is the only one this driver ships, but callers may supply
// their own (e.g. for a binary wire format) without touching Compressor or
// Encoder.
type Packer interface {
	Pack(v any) ([]byte, error)
	Unpack(data []byte, v any) error
}

// Compressor shrinks/expands a byte slice. A no-op implementation is used
// when the compression config option is disabled.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Encoder renders bytes as transportable bytes (and back). base64 is the
// only implementation needed since the wire carries ASCII-safe bytes.
type Encoder interface {
	Encode(data []byte) []byte
	Decode(data []byte) ([]byte, error)
}

// JSONPacker packs/unpacks with encoding/json.
type JSONPacker struct{}

func (JSONPacker) Pack(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONPacker) Unpack(data []byte, v any) error { return json.Unmarshal(data, v) }

// Base64Encoder encodes/decodes with standard base64.
type Base64Encoder struct{}

func (Base64Encoder) Encode(data []byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(data))
}

func (Base64Encoder) Decode(data []byte) ([]byte, error) {
	return base64.StdEncoding.DecodeString(string(data))
}

// NoopCompressor passes bytes through unchanged, used when the compression
// config option is disabled.
type NoopCompressor struct{}

func (NoopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
