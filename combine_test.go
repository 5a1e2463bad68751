package tl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineMergesFramesInOrder(t *testing.T) {
	enc := NewEncoder()
	f1, err := enc.Encode(Map(map[string]Value{"id": Int(1)}))
	require.NoError(t, err)
	f1 = append([]byte(nil), f1...) // the next Encode reuses the buffer
	f2, err := enc.Encode(Map(map[string]Value{"id": Int(2)}))
	require.NoError(t, err)

	combined, err := Combine([][]byte{f1, f2}, nil)
	require.NoError(t, err)

	dec := NewDecoder(combined)
	got, err := dec.Decode()
	require.NoError(t, err)

	require.True(t, got.IsDynamicVector())
	vs := got.AsVector()
	require.Len(t, vs, 2)
	assert.Equal(t, int64(1), vs[0].AsMap()["id"].AsInt())
	assert.Equal(t, int64(2), vs[1].AsMap()["id"].AsInt())
}

func TestCombineDedupsKeysThroughSharedDictionary(t *testing.T) {
	// Each frame comes from its own fresh Encoder, as independently-produced
	// frames would in practice (e.g. separate log records) -- so none of
	// them benefit from a shared dictionary until Combine merges them.
	frames := make([][]byte, 0, 20)
	for i := 0; i < 20; i++ {
		f, err := NewEncoder().Encode(Map(map[string]Value{"repeated_key": Int(int64(i))}))
		require.NoError(t, err)
		frames = append(frames, f)
	}

	combined, err := Combine(frames, nil)
	require.NoError(t, err)

	concatenatedLen := 0
	for _, f := range frames {
		concatenatedLen += len(f)
	}
	assert.Less(t, len(combined), concatenatedLen,
		"combining should cost less than the sum of independently-encoded frames once the key is shared")
}
