package tl

import (
	"github.com/dchest/siphash"
)

// dictKey0/dictKey1 seed the SipHash-2-4 hash used by the dictionary's
// reverse lookup. They're fixed rather than random because two peers must
// agree on nothing beyond the wire bytes themselves (spec §3 invariant 3:
// "seed dictionaries on the two peers must be identical") -- a randomized
// hash seed would be a second, unstated synchronization requirement.
const (
	dictKey0 = 0x5eed5eed5eed5eed
	dictKey1 = 0xc0dec0dec0dec0de
)

type dictEntry struct {
	word  string
	index int // local index within this tier (seed or extended)
}

// defaultDictWarnThreshold is the first high-water mark crossed before
// MaybeInsert starts logging growth warnings; each crossing doubles the
// next one (spec §2.1: "Warn once per threshold crossing").
const defaultDictWarnThreshold = 4096

// Dictionary is the bidirectional string<->index table spec §4.1
// describes: a read-only "seed" tier shared out of band between encoder and
// decoder, and a runtime-growing "extended" tier built from DictValue
// emissions. Indices handed to and accepted from callers are absolute --
// the extended tier's local index i is reported as seedSize+i.
//
// The reverse lookup (word -> index) is a SipHash-keyed bucket table rather
// than a bare map[string]int: the dictionary interns host-supplied keys
// (often attacker-influenced map keys, since this is a self-describing
// wire format with no schema to pre-validate against), so a keyed hash
// guards against deliberately colliding inputs the way Go's own built-in
// map hash does internally, but without depending on an implementation
// detail of the runtime's map.
type Dictionary struct {
	seedWords []string
	seedIndex map[uint64][]dictEntry

	extWords []string
	extIndex map[uint64][]dictEntry

	warnThreshold int
	nextWarnAt    int
}

// DictionaryOption configures a new Dictionary.
type DictionaryOption func(*Dictionary)

// WithWarnThreshold overrides the high-water mark at which the dictionary
// starts warning about extended-tier growth. The mark doubles each time
// it's crossed, so a low value still warns sparingly for a dictionary
// that grows into the millions.
func WithWarnThreshold(n int) DictionaryOption {
	return func(d *Dictionary) { d.warnThreshold = n }
}

// NewDictionary builds a dictionary. seed, if non-empty, becomes the
// read-only tier shared out of band with the peer; it must be identical on
// both sides of a stream for DictIndex references to resolve correctly.
func NewDictionary(seed []string, opts ...DictionaryOption) *Dictionary {
	d := &Dictionary{
		seedWords: seed,
		seedIndex: make(map[uint64][]dictEntry, len(seed)),
		extIndex:  make(map[uint64][]dictEntry),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.warnThreshold <= 0 {
		d.warnThreshold = defaultDictWarnThreshold
	}
	d.nextWarnAt = d.warnThreshold
	for i, w := range seed {
		h := dictHash(w)
		d.seedIndex[h] = append(d.seedIndex[h], dictEntry{word: w, index: i})
	}
	return d
}

func dictHash(s string) uint64 {
	return siphash.Hash(dictKey0, dictKey1, []byte(s))
}

// Size returns the total number of interned words: len(seed) + len(extended).
func (d *Dictionary) Size() int {
	return len(d.seedWords) + len(d.extWords)
}

// GetIndex returns the absolute index of word, checking the seed tier
// first and then the extended tier (spec §4.1: "two-tier lookup at call
// sites").
func (d *Dictionary) GetIndex(word string) (int, bool) {
	h := dictHash(word)
	for _, e := range d.seedIndex[h] {
		if e.word == word {
			return e.index, true
		}
	}
	for _, e := range d.extIndex[h] {
		if e.word == word {
			return len(d.seedWords) + e.index, true
		}
	}
	return 0, false
}

// GetValue resolves an absolute index back to its word.
func (d *Dictionary) GetValue(absIndex int) (string, bool) {
	if absIndex < 0 {
		return "", false
	}
	if absIndex < len(d.seedWords) {
		return d.seedWords[absIndex], true
	}
	localIdx := absIndex - len(d.seedWords)
	if localIdx < len(d.extWords) {
		return d.extWords[localIdx], true
	}
	return "", false
}

// MaybeInsert interns word into the extended tier if it isn't already
// present (in either tier) and returns its absolute index either way.
// Insertion is append-only and idempotent: existing indices never shift.
func (d *Dictionary) MaybeInsert(word string) (index int, inserted bool) {
	if idx, ok := d.GetIndex(word); ok {
		return idx, false
	}
	localIdx := len(d.extWords)
	d.extWords = append(d.extWords, word)
	h := dictHash(word)
	d.extIndex[h] = append(d.extIndex[h], dictEntry{word: word, index: localIdx})

	if size := len(d.extWords); size >= d.nextWarnAt {
		logger().Warn("dictionary extended tier crossed growth high-water mark",
			loggerField("size", size),
			loggerField("threshold", d.nextWarnAt),
		)
		d.nextWarnAt *= 2
	}

	return len(d.seedWords) + localIdx, true
}
