// Package nxdnradio implements a host-side driver for a Kenwood-style NXDN
// trunked radio transceiver attached over a serial line speaking the PCIP
// command dialect. The package wraps the radio in a bidirectional datagram
// transport: payloads go out as one or more long-data-message commands and
// come back reassembled from the asynchronous stream the radio emits.
package nxdnradio

import (
	"bytes"
	"fmt"
)

// Frame delimiters. A well-formed PCIP command or response is always
// START, body, STOP with neither byte appearing inside body.
const (
	START byte = 0x02
	STOP  byte = 0x03
)

// Confirmation bytes the radio sends after a write, each as the sole byte of
// a START/STOP-framed body.
const (
	ConfirmSuccess byte = '0'
	ConfirmFailure byte = '1'
)

// Device-state LED bytes carried as the last byte of a JA frame.
const (
	LedFree       byte = 0x80
	LedSending    byte = 0x81
	LedReceiving  byte = 0x82
	LedIdle       byte = 0x84
)

// MaxSize is the largest payload, in bytes, a single LDM command body may
// carry. The chunker splits anything larger across several LDM commands.
const MaxSize = 4000

// chunkReserve is the bookkeeping overhead (4-byte "json" marker at each end
// of a payload, worst case both present) subtracted from MaxSize to get the
// per-chunk body budget.
const chunkReserve = 8

// Frame returns body wrapped between START and STOP. Callers must ensure
// body contains neither byte; the wire protocol assumes this and the codec
// does not escape it.
func Frame(body []byte) []byte {
	out := make([]byte, 0, len(body)+2)
	out = append(out, START)
	out = append(out, body...)
	out = append(out, STOP)
	return out
}

// Extract strips a single leading START and trailing STOP from frame and
// returns the body. It returns an error if frame is not at least that long
// or doesn't begin/end with the expected sentinels.
func Extract(frame []byte) ([]byte, error) {
	if len(frame) < 2 || frame[0] != START || frame[len(frame)-1] != STOP {
		return nil, fmt.Errorf("%w: malformed frame %x", ErrIllegalArgument, frame)
	}
	return frame[1 : len(frame)-1], nil
}

// SplitFrames extracts the body of every complete START…STOP frame found in
// buf, in order, along with the number of leading bytes consumed. Stray
// bytes before a complete frame's START are skipped and counted as consumed;
// bytes with no START after them, and an incomplete trailing frame, are left
// unconsumed so a reader can keep them for the next read.
func SplitFrames(buf []byte) (frames [][]byte, consumed int) {
	for {
		start := bytes.IndexByte(buf[consumed:], START)
		if start < 0 {
			return frames, consumed
		}
		start += consumed
		stop := bytes.IndexByte(buf[start+1:], STOP)
		if stop < 0 {
			return frames, consumed
		}
		stop += start + 1
		body := buf[start+1 : stop]
		frames = append(frames, body)
		consumed = stop + 1
	}
}
