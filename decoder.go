package tl

import (
	"math"
	"runtime"
	"time"
)

// Decoder reads constructor-tagged Values out of a byte slice, mirroring
// every piece of encoder state: the shared dictionary, the extension
// table, and the repeat/last-value memory (spec §3, §4.4).
type Decoder struct {
	buf  []byte
	pos  int
	dict *Dictionary
	exts *extensionTable

	hasLast bool
	last    Value

	repeatActive bool
	repeatPool   int // replays of last still owed by the current Repeat run
}

// DecoderOption configures a new Decoder.
type DecoderOption func(*Decoder)

// WithDecoderDictionary seeds the decoder's dictionary; must match the
// encoder's seed dictionary exactly (spec §3 invariant 3).
func WithDecoderDictionary(d *Dictionary) DecoderOption { return func(dec *Decoder) { dec.dict = d } }

// WithDecoderExtensions registers custom type codecs, keyed on decode by
// wire token.
func WithDecoderExtensions(exts ...*Extension) DecoderOption {
	return func(dec *Decoder) { dec.exts = newExtensionTable(exts) }
}

// NewDecoder wraps data for decoding. data is not copied; it must not be
// mutated while the Decoder is in use.
func NewDecoder(data []byte, opts ...DecoderOption) *Decoder {
	dec := &Decoder{buf: data}
	for _, opt := range opts {
		opt(dec)
	}
	if dec.dict == nil {
		dec.dict = NewDictionary(nil)
	}
	return dec
}

// Reset rebinds the decoder to a new buffer and clears all repeat/last
// state, without discarding the dictionary or extension table (spec §3,
// "Lifecycle": repeat/last state resets per Decode call, the dictionary
// does not).
func (d *Decoder) Reset(data []byte) {
	d.buf = data
	d.pos = 0
	d.hasLast = false
	d.last = Value{}
	d.repeatActive = false
	d.repeatPool = 0
}

// Decode reads exactly one top-level value from the front of the buffer.
// A short buffer yields an *IncompleteError the caller can retry once more
// bytes are available (spec §4.4, §4.6); any other error is fatal.
func (d *Decoder) Decode() (v Value, err error) {
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

	d.hasLast = false
	d.last = Value{}
	d.repeatActive = false
	d.repeatPool = 0
	return d.ReadObject()
}

// TellPosition reports the current read offset.
func (d *Decoder) TellPosition() int { return d.pos }

// SetPosition seeks to an absolute offset.
func (d *Decoder) SetPosition(pos int) { d.pos = pos }

// Seek advances (or rewinds, with a negative delta) the read position.
func (d *Decoder) Seek(delta int) { d.pos += delta }

func (d *Decoder) require(n int) error {
	if len(d.buf)-d.pos < n {
		return newIncomplete(n, len(d.buf)-d.pos, d.buf[d.pos:])
	}
	return nil
}

func (d *Decoder) readByte() (byte, error) {
	if err := d.require(1); err != nil {
		return 0, err
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) peekByte() (byte, error) {
	if err := d.require(1); err != nil {
		return 0, err
	}
	return d.buf[d.pos], nil
}

// readLength reads a length-prefix varint (spec §3, "Length prefix").
func (d *Decoder) readLength() (int, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	if b < lengthLongForm {
		return int(b), nil
	}
	if b == lengthReserved {
		return 0, &CorruptError{Err: "length-prefix byte 255 is reserved", Offset: d.pos - 1}
	}
	if err := d.require(3); err != nil {
		return 0, err
	}
	n := int(d.buf[d.pos]) | int(d.buf[d.pos+1])<<8 | int(d.buf[d.pos+2])<<16
	d.pos += 3
	return n, nil
}

func (d *Decoder) readRaw(n int) ([]byte, error) {
	if err := d.require(n); err != nil {
		return nil, err
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) readBytesPayload() ([]byte, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	return d.readRaw(n)
}

func (d *Decoder) readStringPayload() (string, error) {
	b, err := d.readBytesPayload()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadObject reads one value, resolving repeats and transparent skip tags
// along the way (spec §3, §4.3.1, §4.4).
func (d *Decoder) ReadObject() (Value, error) {
	if d.repeatPool > 0 {
		d.repeatPool--
		return d.last, nil
	}
	b, err := d.readByte()
	if err != nil {
		return Value{}, err
	}
	return d.readCore(tag(b))
}

func (d *Decoder) readCore(tg tag) (Value, error) {
	switch {
	case tg == tagNone:
		return d.ReadObject() // transparent skip (spec §3: tagNone "carries no payload")
	case isReservedTag(byte(tg)):
		return Value{}, &CorruptError{Err: "reserved tag byte", Offset: d.pos - 1}
	}

	switch tg {
	case tagRepeat:
		return d.readRepeat()
	case tagBoolTrue:
		return d.settle(Bool(true))
	case tagBoolFalse:
		return d.settle(Bool(false))
	case tagNull:
		return d.settle(Null())
	case tagInt8:
		return d.readFixedInt(1, true)
	case tagInt16:
		return d.readFixedInt(2, true)
	case tagInt32:
		return d.readFixedInt(4, true)
	case tagUInt8:
		return d.readFixedInt(1, false)
	case tagUInt16:
		return d.readFixedInt(2, false)
	case tagUInt32:
		return d.readFixedInt(4, false)
	case tagFloat:
		return d.readFloat()
	case tagDouble:
		return d.readDouble()
	case tagDate:
		return d.readDate()
	case tagBinary:
		b, err := d.readBytesPayload()
		if err != nil {
			return Value{}, err
		}
		return d.settle(Bytes(b))
	case tagString:
		s, err := d.readStringPayload()
		if err != nil {
			return Value{}, err
		}
		return d.settle(String(s))
	case tagDictValue:
		s, err := d.readStringPayload()
		if err != nil {
			return Value{}, err
		}
		d.dict.MaybeInsert(s)
		return d.settle(String(s))
	case tagDictIndex:
		idx, err := d.readLength()
		if err != nil {
			return Value{}, err
		}
		s, ok := d.dict.GetValue(idx)
		if !ok {
			return Value{}, ErrDictMiss
		}
		return d.settle(String(s))
	case tagVector:
		return d.readVector()
	case tagVectorDynamic:
		return d.readVectorDynamic()
	case tagMap:
		return d.readMap()
	case tagGZIP:
		return d.readGZIPWrapped()
	default:
		if d.exts != nil {
			if ext, ok := d.exts.byToken(byte(tg)); ok {
				core, err := d.ReadObject()
				if err != nil {
					return Value{}, err
				}
				data, err := ext.Decode(core)
				if err != nil {
					return Value{}, err
				}
				return Custom(data), nil
			}
		}
		return Value{}, &CorruptError{Err: "unknown constructor tag", Offset: d.pos - 1}
	}
}

// settle records v as the "last value" for repeat tracking and returns it.
func (d *Decoder) settle(v Value) (Value, error) {
	d.last = v
	d.hasLast = true
	d.repeatActive = false
	return v, nil
}

// readRepeat handles the Repeat tag (spec §4.3.1). Its length-prefix n is
// the number of consecutive repetitions of the last value the encoder
// folded into one run: this call returns the first of them, and the next
// n-1 ReadObject calls return the rest without consuming any bytes.
func (d *Decoder) readRepeat() (Value, error) {
	n, err := d.readLength()
	if err != nil {
		return Value{}, err
	}
	if !d.hasLast {
		return Value{}, &CorruptError{Err: "Repeat tag with no prior value", Offset: d.pos}
	}
	d.repeatActive = true
	if n > 1 {
		d.repeatPool = n - 1
	}
	return d.last, nil
}

func (d *Decoder) readFixedInt(width int, signed bool) (Value, error) {
	b, err := d.readRaw(width)
	if err != nil {
		return Value{}, err
	}
	var u uint64
	for i := 0; i < width; i++ {
		u |= uint64(b[i]) << (8 * i)
	}
	if !signed {
		return d.settle(Uint(u))
	}
	var i int64
	switch width {
	case 1:
		i = int64(int8(u))
	case 2:
		i = int64(int16(u))
	case 4:
		i = int64(int32(u))
	}
	return d.settle(Int(i))
}

func (d *Decoder) readFloat() (Value, error) {
	b, err := d.readRaw(4)
	if err != nil {
		return Value{}, err
	}
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return d.settle(Float32(math.Float32frombits(bits)))
}

func (d *Decoder) readDoubleBits() (float64, error) {
	b, err := d.readRaw(8)
	if err != nil {
		return 0, err
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(b[i]) << (8 * i)
	}
	return math.Float64frombits(bits), nil
}

func (d *Decoder) readDouble() (Value, error) {
	f, err := d.readDoubleBits()
	if err != nil {
		return Value{}, err
	}
	return d.settle(Double(f))
}

// readDate decodes the Date payload as seconds since the Unix epoch
// (spec.md §9 Design Notes open question, resolved in DESIGN.md).
func (d *Decoder) readDate() (Value, error) {
	secs, err := d.readDoubleBits()
	if err != nil {
		return Value{}, err
	}
	whole := math.Trunc(secs)
	frac := secs - whole
	t := time.Unix(int64(whole), int64(frac*1e9)).UTC()
	return d.settle(DateValue(t))
}

func (d *Decoder) readVector() (Value, error) {
	n, err := d.readLength()
	if err != nil {
		return Value{}, err
	}
	vs := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.ReadObject()
		if err != nil {
			return Value{}, err
		}
		vs = append(vs, v)
	}
	return Vector(vs), nil
}

// readVectorDynamic reads elements until a bare tagNone terminator (spec
// §4.3.3). It must peek the tag byte directly rather than calling
// ReadObject, because ReadObject treats tagNone as "transparent skip" and
// would consume the terminator as if it introduced another value. A
// Repeat in progress is checked first: an active repeat never terminates a
// dynamic vector, since the terminator can only be tagNone itself, not a
// replay of whatever the last real value was.
func (d *Decoder) readVectorDynamic() (Value, error) {
	var vs []Value
	for {
		if d.repeatPool == 0 {
			b, err := d.peekByte()
			if err != nil {
				return Value{}, err
			}
			if tag(b) == tagNone {
				d.pos++
				break
			}
		}
		v, err := d.ReadObject()
		if err != nil {
			return Value{}, err
		}
		vs = append(vs, v)
	}
	return VectorDynamic(vs), nil
}

// readMap reads key/value pairs until readDictionary reports the
// terminator sentinel (spec §4.3, §4.4: "repeatedly readDictionary to
// obtain a key; if key is None-terminator, stop").
func (d *Decoder) readMap() (Value, error) {
	m := make(map[string]Value)
	for {
		key, ok, err := d.readDictionary()
		if err != nil {
			return Value{}, err
		}
		if !ok {
			break
		}
		val, err := d.ReadObject()
		if err != nil {
			return Value{}, err
		}
		m[key] = val
	}
	return Map(m), nil
}

// readDictionary reads one map key (spec §4.4, "readDictionary"):
// DictValue interns and returns the string; DictIndex resolves it against
// the dictionary; a bare None tag is the terminator, consumed; any other
// tag is rewound one byte and also reported as the terminator, so a
// non-dict-coded tag ends a map cleanly without being swallowed. Map keys
// are never plain String tags -- spec §4.3 reserves that encoding path to
// DictValue/DictIndex ("used for map keys always").
func (d *Decoder) readDictionary() (key string, ok bool, err error) {
	b, err := d.readByte()
	if err != nil {
		return "", false, err
	}
	switch tag(b) {
	case tagDictValue:
		s, err := d.readStringPayload()
		if err != nil {
			return "", false, err
		}
		d.dict.MaybeInsert(s)
		return s, true, nil
	case tagDictIndex:
		idx, err := d.readLength()
		if err != nil {
			return "", false, err
		}
		s, ok := d.dict.GetValue(idx)
		if !ok {
			return "", false, ErrDictMiss
		}
		return s, true, nil
	case tagNone:
		return "", false, nil
	default:
		d.pos--
		return "", false, nil
	}
}

// readGZIPWrapped decompresses a raw-deflate payload and decodes a single
// value out of it with a child decoder sharing this decoder's dictionary
// and extension table (spec §4.3.2).
func (d *Decoder) readGZIPWrapped() (Value, error) {
	compressed, err := d.readBytesPayload()
	if err != nil {
		return Value{}, err
	}
	plain, err := inflateRaw(compressed)
	if err != nil {
		return Value{}, &CorruptError{Err: "invalid raw-deflate payload: " + err.Error(), Offset: d.pos}
	}
	child := NewDecoder(plain, func(dec *Decoder) { dec.dict = d.dict; dec.exts = d.exts })
	v, err := child.ReadObject()
	if err != nil {
		return Value{}, err
	}
	return d.settle(v)
}
