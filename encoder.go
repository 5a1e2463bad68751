package tl

import (
	"math"
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
)

// Encoder writes constructor-tagged Values into a growable buffer, driving
// dictionary interning, repeat compression, GZIP sub-object embedding, and
// extension dispatch (spec §4.3). An Encoder is single-threaded and
// reusable across calls to Encode; each call resets the buffer and the
// repeat/last-value state (spec §3, "Lifecycle").
type Encoder struct {
	buf         *buffer
	initialSize int
	dict        *Dictionary
	exts        *extensionTable
	gzip        bool
	gzipLevel   int

	hasLast      bool
	last         Value
	repeatActive bool
	repeatOffset int
	repeatCount  int
	repeatEnd    int // buffer length right after the run's length-prefix
}

// EncoderOption configures a new Encoder.
type EncoderOption func(*Encoder)

// WithDictionary seeds the encoder's dictionary. Both peers must use
// identical seed dictionaries (spec §3 invariant 3).
func WithDictionary(d *Dictionary) EncoderOption { return func(e *Encoder) { e.dict = d } }

// WithExtensions registers custom type codecs, tried in the given order
// (fallback, if present, last regardless of position).
func WithExtensions(exts ...*Extension) EncoderOption {
	return func(e *Encoder) { e.exts = newExtensionTable(exts) }
}

// WithGZIP enables per-value GZIP (raw-deflate) compression of strings
// (spec §4.3.2).
func WithGZIP(enabled bool) EncoderOption { return func(e *Encoder) { e.gzip = enabled } }

// WithGZIPLevel sets the flate compression level used when WithGZIP is
// enabled. Defaults to flate.DefaultCompression.
func WithGZIPLevel(level int) EncoderOption { return func(e *Encoder) { e.gzipLevel = level } }

// WithInitialBufferSize overrides the encoder's starting buffer capacity
// (spec §4.3.4 recommends 8 KiB).
func WithInitialBufferSize(n int) EncoderOption { return func(e *Encoder) { e.initialSize = n } }

// NewEncoder builds an Encoder ready for repeated Encode calls.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{gzipLevel: flate.DefaultCompression}
	for _, opt := range opts {
		opt(e)
	}
	if e.dict == nil {
		e.dict = NewDictionary(nil)
	}
	e.buf = newBuffer(e.initialSize)
	return e
}

// Encode resets the encoder and writes v, returning the encoded frame. The
// returned slice aliases the encoder's internal buffer and is only valid
// until the next call to Encode on the same instance.
func (e *Encoder) Encode(v Value) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(runtime.Error); ok {
				panic(re)
			}
			if er, ok := r.(error); ok {
				err = er
			} else {
				err = ErrNoCoreMatch
			}
		}
	}()

	e.buf.reset()
	e.hasLast = false
	e.last = Value{}
	e.repeatActive = false

	if err := e.writeObject(v); err != nil {
		return nil, err
	}
	return e.buf.bytes(), nil
}

// writeObject is the value dispatcher (spec §4.3, "Value dispatch").
func (e *Encoder) writeObject(v Value) error {
	tg := coreTagFor(v)
	if tg == tagNone {
		return e.writeExtension(v)
	}
	if e.hasLast && scalarEqual(e.last, v) {
		return e.writeRepeat()
	}
	e.last = v
	e.hasLast = true
	e.repeatActive = false
	return e.writeCore(tg, v)
}

func (e *Encoder) writeExtension(v Value) error {
	for _, ext := range e.exts.encodeCandidates() {
		core, ok := ext.Encode(v.AsCustom())
		if !ok {
			continue
		}
		if ext.Token != extTokenFallback {
			if err := e.buf.ensure(1); err != nil {
				return err
			}
			e.buf.append(byte(ext.Token))
		}
		return e.writeObject(core)
	}
	return ErrNoCoreMatch
}

// writeRepeat implements the repeat-run state machine (spec §4.3.1). A run
// is extended in place only while its length-prefix is still the last
// thing in the buffer, so growing it from a 1-byte to a 4-byte prefix is
// just a truncate-and-rewrite. Once anything else has been appended after
// it (a map key, a terminator, an extension token), the next repeat opens
// a new run instead.
func (e *Encoder) writeRepeat() error {
	if !e.repeatActive || e.buf.len() != e.repeatEnd {
		if err := e.buf.ensure(5); err != nil {
			return err
		}
		e.buf.append(byte(tagRepeat))
		e.repeatOffset = e.buf.len()
		e.repeatCount = 1
		e.repeatActive = true
	} else {
		e.repeatCount++
		e.buf.truncateTo(e.repeatOffset)
	}
	if err := e.writeLength(e.repeatCount); err != nil {
		return err
	}
	e.repeatEnd = e.buf.len()
	return nil
}

// writeCore writes a value already routed to constructor tag tg.
func (e *Encoder) writeCore(tg tag, v Value) error {
	if e.gzip && tg == tagString {
		return e.writeGZIPWrapped(v)
	}

	if err := e.buf.ensure(9); err != nil {
		return err
	}

	switch tg {
	case tagBoolTrue, tagBoolFalse, tagNull:
		e.buf.append(byte(tg))
		return nil
	}

	e.buf.append(byte(tg))

	switch tg {
	case tagBinary:
		return e.writeBytesPayload(v.AsBytes())
	case tagDate:
		return e.writeDatePayload(v.AsDate())
	case tagVector:
		return e.writeVectorPayload(v.AsVector(), false)
	case tagVectorDynamic:
		return e.writeVectorPayload(v.AsVector(), true)
	case tagMap:
		return e.writeMapPayload(v.AsMap())
	case tagInt32:
		return e.writeInt32(intMagnitude(v))
	case tagInt16:
		return e.writeInt16(intMagnitude(v))
	case tagInt8:
		return e.writeInt8(intMagnitude(v))
	case tagUInt32:
		return e.writeUInt32(intMagnitude(v))
	case tagUInt16:
		return e.writeUInt16(intMagnitude(v))
	case tagUInt8:
		return e.writeUInt8(intMagnitude(v))
	case tagFloat:
		return e.writeFloatPayload(v.AsFloat32())
	case tagDouble:
		return e.writeDoublePayload(doubleValueOf(v))
	case tagString:
		s := v.AsString()
		if utf8.RuneCountInString(s) <= shortStringInternThreshold {
			e.buf.truncateTo(e.buf.len() - 1) // rewind the tag byte just appended
			return e.wireDictionary(s)
		}
		return e.writeStringPayload(s)
	default:
		return ErrNoCoreMatch
	}
}

func intMagnitude(v Value) int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindUint:
		return int64(v.u)
	case KindFloat64:
		return int64(v.f64)
	default:
		return 0
	}
}

func doubleValueOf(v Value) float64 {
	switch v.kind {
	case KindFloat64:
		return v.f64
	case KindInt:
		return float64(v.i)
	case KindUint:
		return float64(v.u)
	default:
		return 0
	}
}

// writeGZIPWrapped compresses v into a child encoder sharing this
// encoder's dictionary and extension table (spec §4.3.2); the child's
// dictionary insertions are visible to the parent because Dictionary is
// shared by pointer, which sidesteps the interior-mutability concern
// spec.md §9's Design Notes raise for languages without that guarantee.
func (e *Encoder) writeGZIPWrapped(v Value) error {
	child := &Encoder{dict: e.dict, exts: e.exts, buf: newBuffer(initialBufferSize)}
	if err := child.writeObject(v); err != nil {
		return err
	}

	compressed, err := deflateRaw(child.buf.bytes(), e.gzipLevel)
	if err != nil {
		return err
	}

	if err := e.buf.ensure(1); err != nil {
		return err
	}
	e.buf.append(byte(tagGZIP))
	return e.writeBytesPayload(compressed)
}

func (e *Encoder) writeLength(n int) error {
	if n < 0 || n > maxLength {
		return ErrLengthTooLarge
	}
	if err := e.buf.ensure(4); err != nil {
		return err
	}
	if n < lengthLongForm {
		e.buf.append(byte(n))
		return nil
	}
	e.buf.append(lengthLongForm, byte(n), byte(n>>8), byte(n>>16))
	return nil
}

func (e *Encoder) writeBytesPayload(b []byte) error {
	if err := e.writeLength(len(b)); err != nil {
		return err
	}
	if err := e.buf.ensure(len(b)); err != nil {
		return err
	}
	e.buf.appendBytes(b)
	return nil
}

func (e *Encoder) writeStringPayload(s string) error {
	return e.writeBytesPayload([]byte(s))
}

func (e *Encoder) writeInt8(i int64) error {
	if err := e.buf.ensure(1); err != nil {
		return err
	}
	e.buf.append(byte(int8(i)))
	return nil
}

func (e *Encoder) writeInt16(i int64) error {
	if err := e.buf.ensure(2); err != nil {
		return err
	}
	n := int16(i)
	e.buf.append(byte(n), byte(n>>8))
	return nil
}

func (e *Encoder) writeInt32(i int64) error {
	if err := e.buf.ensure(4); err != nil {
		return err
	}
	n := int32(i)
	e.buf.append(byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	return nil
}

func (e *Encoder) writeUInt8(i int64) error {
	if err := e.buf.ensure(1); err != nil {
		return err
	}
	e.buf.append(byte(uint8(i)))
	return nil
}

func (e *Encoder) writeUInt16(i int64) error {
	if err := e.buf.ensure(2); err != nil {
		return err
	}
	n := uint16(i)
	e.buf.append(byte(n), byte(n>>8))
	return nil
}

func (e *Encoder) writeUInt32(i int64) error {
	if err := e.buf.ensure(4); err != nil {
		return err
	}
	n := uint32(i)
	e.buf.append(byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	return nil
}

func (e *Encoder) writeFloatPayload(f float32) error {
	if err := e.buf.ensure(4); err != nil {
		return err
	}
	u := math.Float32bits(f)
	e.buf.append(byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
	return nil
}

func (e *Encoder) writeDoublePayload(f float64) error {
	if err := e.buf.ensure(8); err != nil {
		return err
	}
	u := math.Float64bits(f)
	e.buf.append(byte(u), byte(u>>8), byte(u>>16), byte(u>>24), byte(u>>32), byte(u>>40), byte(u>>48), byte(u>>56))
	return nil
}

// writeDatePayload encodes t as seconds since the Unix epoch, resolving
// spec.md §9's Date open question in favor of seconds (matching the
// decoder).
func (e *Encoder) writeDatePayload(t time.Time) error {
	secs := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return e.writeDoublePayload(secs)
}

func (e *Encoder) writeVectorPayload(vs []Value, dynamic bool) error {
	if dynamic {
		for _, item := range vs {
			if err := e.writeObject(item); err != nil {
				return err
			}
		}
		if err := e.buf.ensure(1); err != nil {
			return err
		}
		e.buf.append(byte(tagNone))
		return nil
	}
	if err := e.writeLength(len(vs)); err != nil {
		return err
	}
	for _, item := range vs {
		if err := e.writeObject(item); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeMapPayload(m map[string]Value) error {
	for k, v := range m {
		if err := e.wireDictionary(k); err != nil {
			return err
		}
		if err := e.writeObject(v); err != nil {
			return err
		}
	}
	if err := e.buf.ensure(1); err != nil {
		return err
	}
	e.buf.append(byte(tagNone))
	return nil
}

// wireDictionary emits key through the dictionary protocol: a DictIndex if
// it's already interned (seed or extended), otherwise a DictValue that
// also interns it (spec §4.3, "wireDictionary"). Used unconditionally for
// map keys, and for strings at or below the short-string threshold.
func (e *Encoder) wireDictionary(key string) error {
	if idx, ok := e.dict.GetIndex(key); ok {
		if err := e.buf.ensure(5); err != nil {
			return err
		}
		e.buf.append(byte(tagDictIndex))
		return e.writeLength(idx)
	}
	e.dict.MaybeInsert(key)
	if err := e.buf.ensure(1); err != nil {
		return err
	}
	e.buf.append(byte(tagDictValue))
	return e.writeStringPayload(key)
}

// StartDynamicVector and EndDynamicVector are the low-level building blocks
// behind VectorDynamic values (spec §4.3.3), exposed for callers who want
// to stream elements one at a time without materializing a []Value first.
// Dynamic vectors built this way are nestable: a Start/End pair can sit
// between the Start and End of an outer pair.
func (e *Encoder) StartDynamicVector() error {
	if err := e.buf.ensure(1); err != nil {
		return err
	}
	e.buf.append(byte(tagVectorDynamic))
	e.hasLast = false
	e.repeatActive = false
	return nil
}

// WriteValue writes v as one element of a manually-driven dynamic vector
// (or of any context where the caller is assembling a frame by hand).
func (e *Encoder) WriteValue(v Value) error {
	return e.writeObject(v)
}

func (e *Encoder) EndDynamicVector() error {
	if err := e.buf.ensure(1); err != nil {
		return err
	}
	e.buf.append(byte(tagNone))
	return nil
}

// Reset clears the encoder's buffer and state without allocating a new
// one, for manual Start/WriteValue/End sequences.
func (e *Encoder) Reset() {
	e.buf.reset()
	e.hasLast = false
	e.last = Value{}
	e.repeatActive = false
}

// Bytes returns the bytes written so far via the manual Start/WriteValue/End
// API. Like Encode's return value, it aliases the internal buffer.
func (e *Encoder) Bytes() []byte { return e.buf.bytes() }
