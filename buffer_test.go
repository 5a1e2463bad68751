package tl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowBufferSmallRegimeRoundsToPage(t *testing.T) {
	got, err := growBuffer(100, 8*1024)
	require.NoError(t, err)
	assert.Equal(t, 0, got%pageSize, "grown capacity must be page-aligned")
	assert.GreaterOrEqual(t, got, 100)
}

func TestGrowBufferLargeRegimeDoublesWithFloor(t *testing.T) {
	need := regrowThreshold + 1
	got, err := growBuffer(need, regrowThreshold)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, minGrowthFloor)
	assert.Equal(t, 0, got%pageSize)
}

func TestGrowBufferRejectsOversizedRequest(t *testing.T) {
	_, err := growBuffer(int(maxBufferSize)+1, 1024)
	assert.ErrorIs(t, err, ErrBufferTooLarge)
}

func TestBufferTruncateToDiscardsTail(t *testing.T) {
	buf := newBuffer(16)
	buf.append(1, 2, 3, 4, 5)
	buf.truncateTo(2)
	assert.Equal(t, []byte{1, 2}, buf.bytes())
}

func TestBufferEnsureGrowsWithoutLosingData(t *testing.T) {
	buf := newBuffer(4)
	for i := 0; i < 1000; i++ {
		require.NoError(t, buf.ensure(1))
		buf.append(byte(i))
	}
	assert.Equal(t, 1000, buf.len())
	for i := 0; i < 1000; i++ {
		assert.Equal(t, byte(i), buf.bytes()[i])
	}
}
