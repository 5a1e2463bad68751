package tl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGZIPRoundtripAndSizeReduction(t *testing.T) {
	plain := NewEncoder(WithGZIP(false))
	compressed := NewEncoder(WithGZIP(true))
	dec := NewDecoder(nil)

	repetitive := String(strings.Repeat("the quick brown fox jumps over the lazy dog ", 200))

	plainBytes, err := plain.Encode(repetitive)
	require.NoError(t, err)

	compressedBytes, err := compressed.Encode(repetitive)
	require.NoError(t, err)

	assert.Less(t, len(compressedBytes), len(plainBytes),
		"GZIP-wrapped highly repetitive string should be smaller than the plain encoding")

	dec.Reset(compressedBytes)
	got, err := dec.Decode()
	require.NoError(t, err)
	assert.True(t, valueEqual(repetitive, got))
}

// TestGZIPChildSharesDictionaryWithParent checks that a short GZIP-wrapped
// string whose content is also a map key later in the document interns
// through the same dictionary instance the parent uses, because the
// sub-encoder in writeGZIPWrapped shares the dictionary pointer rather
// than starting fresh (spec §4.3.2): the parent then writes that map key
// as a DictIndex.
func TestGZIPChildSharesDictionaryWithParent(t *testing.T) {
	dict := NewDictionary(nil)
	enc := NewEncoder(WithGZIP(true), WithDictionary(dict))

	doc := Vector([]Value{
		String(strings.Repeat("payload", 200)), // GZIP-wrapped, too long to intern
		String("payload"),                      // GZIP-wrapped, interned by the child encoder
		Map(map[string]Value{"payload": Int(1)}),
	})
	b, err := enc.Encode(doc)
	require.NoError(t, err)

	_, ok := dict.GetIndex("payload")
	assert.True(t, ok, "map key interning must still reach the shared dictionary after a GZIP-wrapped sibling")
	assert.Equal(t, []byte{byte(tagMap), byte(tagDictIndex), 0, byte(tagUInt8), 1, byte(tagNone)}, b[len(b)-6:],
		"the map key must resolve to the entry the GZIP child interned")
}
