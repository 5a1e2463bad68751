package tl

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/flate"
)

// Despite the tag name inherited from spec §3 ("GZIP"), the wire payload is
// specified as raw-deflate, not the gzip container format -- no magic
// bytes, no CRC, no length trailer beyond the length-prefix the caller
// already writes. flate.Writer pooling mirrors the teacher's
// zlibWriterPools (zlib_purego.go): one *sync.Pool per compression level,
// Reset+Put around each use.

var flateWriterPools = make(map[int]*sync.Pool)

func init() {
	for level := flate.HuffmanOnly; level <= flate.BestCompression; level++ {
		lvl := level
		flateWriterPools[lvl] = &sync.Pool{
			New: func() interface{} {
				fw, _ := flate.NewWriter(nil, lvl)
				return fw
			},
		}
	}
}

// deflateRaw compresses buf at the given level using raw deflate.
func deflateRaw(buf []byte, level int) ([]byte, error) {
	pool := flateWriterPools[level]
	if pool == nil {
		return nil, fmt.Errorf("tl: unknown flate level %d", level)
	}

	var comp bytes.Buffer
	fw := pool.Get().(*flate.Writer)
	defer pool.Put(fw)
	fw.Reset(&comp)

	if _, err := fw.Write(buf); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}

	return comp.Bytes(), nil
}

// inflateRaw decompresses a raw-deflate payload.
func inflateRaw(buf []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(buf))
	defer fr.Close()

	var dec bytes.Buffer
	if _, err := dec.ReadFrom(fr); err != nil {
		return nil, err
	}
	return dec.Bytes(), nil
}
