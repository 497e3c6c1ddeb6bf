package pickle

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ZlibCompressor implements Compressor with klauspost/compress's zlib
// codec, a wire-compatible, faster drop-in for the standard library's
// compress/zlib.
type ZlibCompressor struct{}

func (ZlibCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (ZlibCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
