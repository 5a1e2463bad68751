package tl

import (
	"io"
)

// Writer is the "TLEncode" framing transform (spec §4.6, §6): each Encode
// call encodes one value as an independent frame and writes it through to
// the underlying io.Writer. WriteVectorWhenEmpty, if set, makes Close emit
// a single empty-Vector frame when no record was ever written, matching
// the framing layer's EOF convention for otherwise-silent streams.
type Writer struct {
	w                    io.Writer
	enc                  *Encoder
	writeVectorWhenEmpty bool
	wrote                bool
}

// WriterOption configures a new Writer.
type WriterOption func(*Writer)

// WriteVectorWhenEmpty enables the empty-Vector-at-Close behavior (spec
// §4.6).
func WriteVectorWhenEmpty(enabled bool) WriterOption {
	return func(w *Writer) { w.writeVectorWhenEmpty = enabled }
}

// NewWriter wraps dst. Every frame is written by one Encoder built with
// NewEncoder's defaults; no encoder options (dictionary, extensions,
// GZIP) can be passed through.
func NewWriter(dst io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{w: dst, enc: NewEncoder()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Encode writes v to the stream as one frame.
func (w *Writer) Encode(v Value) error {
	b, err := w.enc.Encode(v)
	if err != nil {
		return err
	}
	w.wrote = true
	_, err = w.w.Write(b)
	return err
}

// Close flushes the empty-Vector-at-EOF convention, if configured and
// nothing was ever written. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.wrote || !w.writeVectorWhenEmpty {
		return nil
	}
	return w.Encode(Vector(nil))
}

// Reader is the "TLDecode" framing transform (spec §4.6): Feed accepts
// arbitrary-sized chunks of a byte stream and returns every complete
// top-level value that chunk (combined with any previously retained
// partial tail) newly makes available. An incomplete trailing frame is
// retained and prepended to the next chunk; any other decode error is
// fatal and propagated immediately, per the framing layer's contract with
// the codec (spec §4.6, "Contracts the framing layer relies on").
type Reader struct {
	dec     *Decoder
	pending []byte
}

// NewReader constructs a Reader. opts are forwarded to the Decoder used
// to parse every frame; the same Decoder (and so the same dictionary) is
// reused across Feed calls for the life of the Reader.
func NewReader(opts ...DecoderOption) *Reader {
	return &Reader{dec: NewDecoder(nil, opts...)}
}

// Feed appends chunk to any retained partial tail and decodes as many
// complete top-level values as are available, in order.
func (r *Reader) Feed(chunk []byte) ([]Value, error) {
	buf := append(r.pending, chunk...)
	r.pending = nil

	var out []Value
	for {
		if len(buf) == 0 {
			break
		}
		r.dec.Reset(buf)
		v, err := r.dec.Decode()
		if err == nil {
			out = append(out, v)
			buf = buf[r.dec.TellPosition():]
			continue
		}
		if Incomplete(err) {
			logger().Debug("stream reader retaining incomplete frame",
				loggerField("buffered_bytes", len(buf)),
			)
			r.pending = buf
			return out, nil
		}
		logger().Warn("stream reader aborting on non-incomplete decode error",
			loggerField("error", err.Error()),
		)
		return out, err
	}
	return out, nil
}

// Pending returns the bytes currently retained as an incomplete trailing
// frame, for diagnostics or graceful-shutdown checks.
func (r *Reader) Pending() []byte { return r.pending }
