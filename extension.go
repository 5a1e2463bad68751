package tl

// Extension is a host-registered codec for a custom type, dispatched by a
// single-byte token in the same tag space as the core constructors (spec
// §4.2). This implementation uses the "value-returning" ABI spec §4.2
// offers as an alternative to "self-driving": Encode maps a custom payload
// to an intermediate core-encodable Value (or reports it doesn't claim the
// value), and Decode maps a decoded core Value back to a custom payload.
// This keeps extensions as plain functions over Value rather than handing
// them a raw cursor into the encoder/decoder buffer (see DESIGN.md, "Open
// Question resolutions").
type Extension struct {
	// Token identifies this extension on the wire. Must be extTokenFallback
	// (-1) or in [extTokenMin, extTokenMax]; NewExtension rejects anything
	// else eagerly, per spec §4.2 ("construction MUST reject them").
	Token int

	// Encode maps data (the payload of a Custom Value) to an intermediate
	// core Value. ok is false if this extension doesn't claim data.
	Encode func(data interface{}) (core Value, ok bool)

	// Decode maps a decoded core Value back to a custom payload.
	Decode func(core Value) (data interface{}, err error)
}

// NewExtension validates token and returns an *Extension wrapping the
// given codec pair. Construction errors are eager (spec §7: "Fatal;
// propagate eagerly"), so callers discover a bad token at registration
// time, not on the first encode.
func NewExtension(token int, encode func(interface{}) (Value, bool), decode func(Value) (interface{}, error)) (*Extension, error) {
	if token != extTokenFallback && (token < extTokenMin || token > extTokenMax) {
		return nil, ErrBadExtToken
	}
	return &Extension{Token: token, Encode: encode, Decode: decode}, nil
}

// extensionTable indexes registered extensions for dispatch: byTag for
// decode (token -> extension), and ordered for encode (registration order,
// fallback last, per spec §4.2: "iterates extensions in registration
// order; ... fallback ... tried last").
type extensionTable struct {
	ordered  []*Extension
	fallback *Extension
	byTag    map[byte]*Extension
}

func newExtensionTable(exts []*Extension) *extensionTable {
	t := &extensionTable{byTag: make(map[byte]*Extension)}
	for _, e := range exts {
		if e.Token == extTokenFallback {
			t.fallback = e
			continue
		}
		t.ordered = append(t.ordered, e)
		t.byTag[byte(e.Token)] = e
	}
	return t
}

// encodeCandidates yields tried-in-order extensions: registered ones first,
// then the fallback (if any) last.
func (t *extensionTable) encodeCandidates() []*Extension {
	if t == nil {
		return nil
	}
	if t.fallback == nil {
		return t.ordered
	}
	return append(append([]*Extension{}, t.ordered...), t.fallback)
}

func (t *extensionTable) byToken(b byte) (*Extension, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := t.byTag[b]
	return e, ok
}
