// +build gofuzz

package tl

// Fuzz feeds arbitrary bytes to a fresh Decoder. Any error is a normal
// outcome for random input; only a panic is a bug, since a malformed
// document must surface as a CorruptError or IncompleteError, never a
// crash (spec §7: "no panics cross a package boundary"). Adapted from the
// teacher's header-aware Fuzz entry point -- this format has no header to
// pre-validate, so every input goes straight to Decode.
func Fuzz(data []byte) int {
	dec := NewDecoder(data)
	v, err := dec.Decode()
	if err != nil {
		return 0
	}

	enc := NewEncoder()
	reencoded, err := enc.Encode(v)
	if err != nil {
		panic("unable to re-encode a successfully decoded value")
	}

	dec2 := NewDecoder(reencoded)
	if _, err := dec2.Decode(); err != nil {
		panic("unable to decode a freshly re-encoded value")
	}

	return 1
}
