package tl

// growBuffer implements the two-regime growth curve of spec §4.3.4. need is
// the total capacity the encoder requires (current offset plus the pending
// write); old is the buffer's current capacity. It returns the new
// capacity, or an error if the required size exceeds maxBufferSize.
func growBuffer(need, old int) (int, error) {
	e := uint64(need)

	if e > regrowThreshold {
		var target uint64
		if e > largeGrowThreshold {
			target = uint64(float64(e) * 1.25)
		} else {
			target = e * 2
		}
		if target < minGrowthFloor {
			target = minGrowthFloor
		}
		if e > maxBufferSize {
			return 0, ErrBufferTooLarge
		}
		rounded := ((target / pageSize) + 1) * pageSize
		if rounded > maxBufferSize {
			rounded = maxBufferSize
		}
		return int(rounded), nil
	}

	base := e * 4
	if uint64(old-1) > base {
		base = uint64(old - 1)
	}
	rounded := ((base >> 12) + 1) << 12
	if rounded > maxBufferSize {
		return 0, ErrBufferTooLarge
	}
	return int(rounded), nil
}

// buffer is the encoder's single contiguous growable byte vector (spec
// §4.3.4, §9 Design Notes: "keep the buffer as a single contiguous growable
// byte vector, not a rope" -- repeat-run rewriting needs writable
// back-pointers into it).
type buffer struct {
	b []byte
}

func newBuffer(size int) *buffer {
	if size <= 0 {
		size = initialBufferSize
	}
	return &buffer{b: make([]byte, 0, size)}
}

// ensure grows the buffer so that at least extra more bytes can be written
// at the current length without reallocating past safeEnd's headroom.
func (buf *buffer) ensure(extra int) error {
	need := len(buf.b) + extra + bufferHeadroom
	if need <= cap(buf.b) {
		return nil
	}
	newCap, err := growBuffer(need, cap(buf.b))
	if err != nil {
		return err
	}
	logger().Debug("growing encoder buffer",
		loggerField("old_capacity", cap(buf.b)),
		loggerField("new_capacity", newCap),
	)
	nb := make([]byte, len(buf.b), newCap)
	copy(nb, buf.b)
	buf.b = nb
	return nil
}

func (buf *buffer) append(bs ...byte) {
	buf.b = append(buf.b, bs...)
}

func (buf *buffer) appendBytes(bs []byte) {
	buf.b = append(buf.b, bs...)
}

func (buf *buffer) len() int { return len(buf.b) }

func (buf *buffer) reset() { buf.b = buf.b[:0] }

// setByte overwrites a single already-written byte, used by the repeat-run
// rewriter (spec §4.3.1) to bump a count in place.
func (buf *buffer) setByte(offset int, v byte) { buf.b[offset] = v }

// truncateTo discards everything written at or after offset. Safe because
// nothing downstream of a repeat-run's length-prefix, or of a short
// string's provisional tag byte, is written until the run closes or the
// dictionary lookup resolves (spec §4.3.1, §4.3 "wireDictionary").
func (buf *buffer) truncateTo(offset int) { buf.b = buf.b[:offset] }

func (buf *buffer) bytes() []byte { return buf.b }
