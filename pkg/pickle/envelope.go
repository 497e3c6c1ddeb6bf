package pickle

import (
	"fmt"
)

// Envelope is the JSON shape wrapped around every payload before it is
// compressed and base64-encoded. Meta may carry a "trigger" key naming the
// topic a receiver should route the decoded message to.
type Envelope struct {
	Counter int            `json:"counter"`
	Meta    map[string]any `json:"meta"`
	Payload any            `json:"payload"`
}

// Trigger returns Meta["trigger"] as a string, or "" if absent or not a
// string.
func (e Envelope) Trigger() string {
	if e.Meta == nil {
		return ""
	}
	v, _ := e.Meta["trigger"].(string)
	return v
}

// Codec composes a Packer, Compressor, and Encoder into the single
// pickle/unpickle operation the rest of the driver uses.
type Codec struct {
	Packer     Packer
	Compressor Compressor
	Encoder    Encoder
}

// NewCodec returns a Codec using JSON, base64, and either zlib or a no-op
// compressor depending on compression.
func NewCodec(compression bool) *Codec {
	var compressor Compressor = ZlibCompressor{}
	if !compression {
		compressor = NoopCompressor{}
	}
	return &Codec{
		Packer:     JSONPacker{},
		Compressor: compressor,
		Encoder:    Base64Encoder{},
	}
}

// Pickle serializes v, compresses it, and base64-encodes the result:
// encode(compress(pack(v))).
func (c *Codec) Pickle(v any) ([]byte, error) {
	packed, err := c.Packer.Pack(v)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	compressed, err := c.Compressor.Compress(packed)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return c.Encoder.Encode(compressed), nil
}

// Unpickle reverses Pickle and unpacks the result into v.
func (c *Codec) Unpickle(data []byte, v any) error {
	decoded, err := c.Encoder.Decode(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	decompressed, err := c.Compressor.Decompress(decoded)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	if err := c.Packer.Unpack(decompressed, v); err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	return nil
}

// PickleEnvelope pickles an Envelope built from counter/meta/payload.
func (c *Codec) PickleEnvelope(counter int, meta map[string]any, payload any) ([]byte, error) {
	return c.Pickle(Envelope{Counter: counter, Meta: meta, Payload: payload})
}

// UnpickleEnvelope unpickles data into an Envelope. The Payload field comes
// back as the dynamically-typed result of encoding/json unmarshaling into
// an any (maps, slices, numbers as float64, etc.) since the original type is
// not recoverable across the wire.
func (c *Codec) UnpickleEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := c.Unpickle(data, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// allowedSizeWithMarginFraction is the headroom factor: a payload must
// pickle to no more than 80% of MaxSize to accommodate the counter/meta
// overhead of the enclosing Envelope once it's actually built.
const allowedSizeWithMarginFraction = 0.8

// AllowedSizeWithMargin reports whether v, pickled on its own, fits within
// allowedSizeWithMarginFraction of maxSize. It is used as a cheap
// pre-check before the full envelope is built.
func (c *Codec) AllowedSizeWithMargin(v any, maxSize int) (bool, error) {
	encoded, err := c.Pickle(map[string]any{"payload": v})
	if err != nil {
		return false, err
	}
	return float64(len(encoded)) <= allowedSizeWithMarginFraction*float64(maxSize), nil
}
