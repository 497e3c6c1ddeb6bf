package radio

import nxdnradio "github.com/evocount/nxdnradio"

// chunkBudget is the per-chunk body budget, reserving 8 bytes for the
// json…json envelope markers.
const chunkBudget = nxdnradio.MaxSize - 8

// splitChunks splits encoded into chunks of at most chunkBudget bytes, with
// the literal "json" marker prepended to the first chunk and appended to
// the last. A payload that fits in a single chunk gets both markers on that
// one chunk.
func splitChunks(encoded []byte) [][]byte {
	if len(encoded) == 0 {
		return [][]byte{[]byte("jsonjson")}
	}

	var chunks [][]byte
	for offset := 0; offset < len(encoded); offset += chunkBudget {
		end := offset + chunkBudget
		if end > len(encoded) {
			end = len(encoded)
		}
		chunks = append(chunks, encoded[offset:end])
	}

	last := len(chunks) - 1
	withSuffix := append(append([]byte{}, chunks[last]...), []byte("json")...)
	chunks[last] = withSuffix
	chunks[0] = append([]byte("json"), chunks[0]...)
	return chunks
}
