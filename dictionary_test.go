package tl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDictionarySeedTierIsZeroBased(t *testing.T) {
	d := NewDictionary([]string{"zero", "one", "two"})

	idx, ok := d.GetIndex("zero")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = d.GetIndex("two")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	word, ok := d.GetValue(1)
	assert.True(t, ok)
	assert.Equal(t, "one", word)
}

func TestDictionaryExtendedTierFollowsSeed(t *testing.T) {
	d := NewDictionary([]string{"a", "b"})

	idx, inserted := d.MaybeInsert("c")
	assert.True(t, inserted)
	assert.Equal(t, 2, idx, "extended tier starts right after the seed tier")

	idx2, inserted2 := d.MaybeInsert("c")
	assert.False(t, inserted2, "insertion is idempotent")
	assert.Equal(t, idx, idx2, "index never shifts on a repeat insert")
}

func TestDictionaryMaybeInsertSkipsSeedWords(t *testing.T) {
	d := NewDictionary([]string{"seeded"})

	idx, inserted := d.MaybeInsert("seeded")
	assert.False(t, inserted)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, d.Size(), "a seed word re-inserted must not grow the extended tier")
}

func TestDictionaryGetValueOutOfRange(t *testing.T) {
	d := NewDictionary([]string{"a"})
	_, ok := d.GetValue(5)
	assert.False(t, ok)
	_, ok = d.GetValue(-1)
	assert.False(t, ok)
}
