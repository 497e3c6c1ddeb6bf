// Package crc32check is scaffolding for a CRC32 integrity check around the
// json…json encoded blob boundary. Several predecessor wire-format revisions
// carried this check; the current format omits it. The helpers here exist
// so a future format bump can re-add the check without having to rediscover
// where it goes, but nothing in the default encode/decode path calls them.
package crc32check

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Wrap appends a big-endian CRC32 (IEEE polynomial) of data to data itself.
func Wrap(data []byte) []byte {
	sum := crc32.ChecksumIEEE(data)
	out := make([]byte, len(data)+4)
	copy(out, data)
	binary.BigEndian.PutUint32(out[len(data):], sum)
	return out
}

// Unwrap validates and strips the trailing CRC32 appended by Wrap.
func Unwrap(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("crc32check: data too short (%d bytes)", len(data))
	}
	payload, tail := data[:len(data)-4], data[len(data)-4:]
	want := binary.BigEndian.Uint32(tail)
	got := crc32.ChecksumIEEE(payload)
	if got != want {
		return nil, fmt.Errorf("crc32check: mismatch, want %08x got %08x", want, got)
	}
	return payload, nil
}
