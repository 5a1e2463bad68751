package tl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Encode(Int(1)))
	require.NoError(t, w.Encode(String("two")))
	require.NoError(t, w.Encode(Bool(true)))

	r := NewReader()
	got, err := r.Feed(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, valueEqual(Uint(1), got[0])) // Int(1) is narrowed to UInt8
	assert.True(t, valueEqual(String("two"), got[1]))
	assert.True(t, valueEqual(Bool(true), got[2]))
	assert.Empty(t, r.Pending())
}

// TestReaderAccumulatesAcrossChunkBoundaries feeds one frame split across
// two Feed calls and checks it only surfaces once the tail arrives (spec
// §4.6: "retain the chunk and prepend it to the next chunk before
// retrying").
func TestReaderAccumulatesAcrossChunkBoundaries(t *testing.T) {
	enc := NewEncoder()
	frame, err := enc.Encode(String("a somewhat longer string value to split mid-frame"))
	require.NoError(t, err)
	require.Greater(t, len(frame), 4)

	split := len(frame) / 2

	r := NewReader()
	got, err := r.Feed(frame[:split])
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotEmpty(t, r.Pending())

	got, err = r.Feed(frame[split:])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, valueEqual(String("a somewhat longer string value to split mid-frame"), got[0]))
	assert.Empty(t, r.Pending())
}

func TestReaderHandlesMultipleFramesInOneChunk(t *testing.T) {
	enc := NewEncoder()
	f1, err := enc.Encode(Int(1))
	require.NoError(t, err)
	f1 = append([]byte(nil), f1...) // the next Encode reuses the buffer
	f2, err := enc.Encode(Int(2))
	require.NoError(t, err)

	r := NewReader()
	got, err := r.Feed(append(append([]byte{}, f1...), f2...))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].AsInt())
	assert.Equal(t, int64(2), got[1].AsInt())
}

func TestWriterWriteVectorWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriteVectorWhenEmpty(true))
	require.NoError(t, w.Close())
	assert.NotZero(t, buf.Len(), "Close on an empty writer with the option set should still emit a frame")

	r := NewReader()
	got, err := r.Feed(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, KindVector, got[0].Kind())
	assert.Empty(t, got[0].AsVector())
}

func TestWriterSkipsEmptyVectorWhenSomethingWasWritten(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriteVectorWhenEmpty(true))
	require.NoError(t, w.Encode(Int(1)))
	require.NoError(t, w.Close())

	r := NewReader()
	got, err := r.Feed(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 1)
}
