package tl

import (
	"errors"
	"fmt"
)

// Fatal errors (spec §7). None of these are recoverable by the stream
// framing layer -- only IncompleteError is.
var (
	ErrNoCoreMatch    = errors.New("tl: value matches no core type and no extension claimed it")
	ErrBufferTooLarge = errors.New("tl: packed buffer would be larger than maximum buffer size")
	ErrLengthTooLarge = errors.New("tl: length exceeds the 24-bit length-prefix maximum")
	ErrBadExtToken    = errors.New("tl: extension token must be -1 (fallback) or in [35,254]")
	ErrDictMiss       = errors.New("tl: DictIndex references an unknown index")
)

// CorruptError reports a decode-time structural failure: a reserved or
// unknown tag byte, a malformed varint, or similar. Offset is the byte
// position where the failure was detected: the offending tag or length
// byte itself, or the read position just past a Repeat's length-prefix or
// an undecodable raw-deflate payload.
type CorruptError struct {
	Err    string
	Offset int
}

func (c CorruptError) Error() string {
	return fmt.Sprintf("tl: corrupt document at offset %d: %s", c.Offset, c.Err)
}

// IncompleteError is the sole recoverable decode error (spec §4.4, §4.6):
// the buffer ended before a complete value could be read. Required and
// Available describe the shortfall; Partial is the tail of the input that
// the stream framing layer should prepend to the next chunk.
type IncompleteError struct {
	Required  int
	Available int
	Partial   []byte
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("tl: incomplete document: need %d bytes, have %d", e.Required, e.Available)
}

// Incomplete reports whether err (or something it wraps) is an
// *IncompleteError, the signal the stream framing layer accumulates on.
func Incomplete(err error) bool {
	var ie *IncompleteError
	return errors.As(err, &ie)
}

func newIncomplete(need, have int, partial []byte) error {
	return &IncompleteError{Required: need, Available: have, Partial: partial}
}
