package tl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRepeatCompression checks that a run of identical scalars inside a
// dynamic vector compresses to something shorter than writing each value
// out in full, and still decodes back to the original sequence (spec §4.3.1).
func TestRepeatCompression(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder(nil)

	run := VectorDynamic([]Value{
		String("same"), String("same"), String("same"), String("same"), String("same"),
	})

	withRepeat, err := enc.Encode(run)
	require.NoError(t, err)
	withRepeat = append([]byte(nil), withRepeat...) // the next Encode reuses the buffer

	noRepeat, err := enc.Encode(VectorDynamic([]Value{
		String("same"), String("diff1"), String("diff2"), String("diff3"), String("diff4"),
	}))
	require.NoError(t, err)

	assert.Less(t, len(withRepeat), len(noRepeat),
		"repeated values should encode smaller than distinct ones of similar length")

	dec.Reset(withRepeat)
	got, err := dec.Decode()
	require.NoError(t, err)
	assert.True(t, valueEqual(run, got))
}

// TestRepeatRequiresImmediateAdjacency checks that _last is updated by
// every dispatched value, not just scalars (spec §4.3 step 4 applies
// generically): an intervening container -- even an empty one -- still
// becomes the new _last, so a scalar on the far side of it never
// repeat-matches one on the near side. Round-trip correctness would hold
// either way, so the encoded bytes are checked for the absence of a Repeat.
func TestRepeatRequiresImmediateAdjacency(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder(nil)

	doc := Vector([]Value{
		Int(7),
		Vector([]Value{}),
		Int(7),
	})

	b, err := enc.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		byte(tagVector), 3,
		byte(tagUInt8), 7,
		byte(tagVector), 0,
		byte(tagUInt8), 7,
	}, b, "the second 7 must be written in full, not as a Repeat")

	// Non-negative Ints are narrowed to UInt8 and decode as Uint.
	want := Vector([]Value{Uint(7), Vector([]Value{}), Uint(7)})

	dec.Reset(b)
	got, err := dec.Decode()
	require.NoError(t, err)
	assert.True(t, valueEqual(want, got))
}

// TestRepeatNeverAppliesToContainers checks that structurally-identical
// vectors never trigger repeat compression (spec §3: "never equal for this
// purpose even if structurally identical").
func TestRepeatNeverAppliesToContainers(t *testing.T) {
	a := Vector([]Value{Int(1), Int(2)})
	b := Vector([]Value{Int(1), Int(2)})
	assert.False(t, scalarEqual(a, b))
}
