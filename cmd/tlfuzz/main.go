// Command tlfuzz throws random bytes at the decoder looking for panics,
// then shrinks any crashing input with ddmin before reporting it.
// Adapted from the teacher's cmd/fuzzer, which threw random bytes at a
// Sereal header-prefixed buffer; this format has no header, so the random
// buffer is fed to Decode directly.
package main

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"os"

	"github.com/dgryski/go-ddmin"

	tl "github.com/tlcodec/tl"
)

// crashes reports whether decoding b panics. Decode recovers and converts
// most panics to error returns on its own, but re-panics on runtime.Error
// (spec.md §7's taxonomy only covers documented corruption/incompleteness,
// not programmer-error conditions like an out-of-range index), so this
// still needs its own recover to catch those.
func crashes(b []byte) (result ddmin.Result) {
	defer func() {
		if recover() != nil {
			result = ddmin.Fail
		}
	}()
	dec := tl.NewDecoder(b)
	_, _ = dec.Decode()
	return ddmin.Pass
}

func main() {
	for iter := 0; iter < 1_000_000; iter++ {
		l := mrand.Intn(256)
		b := make([]byte, l)
		if _, err := crand.Read(b); err != nil {
			fmt.Fprintln(os.Stderr, "rand read:", err)
			os.Exit(1)
		}

		if crashes(b) != ddmin.Fail {
			continue
		}

		minimal := ddmin.Minimize(b, crashes)
		fmt.Printf("crash found after %d iterations, minimized to %d bytes:\n%s",
			iter, len(minimal), hex.Dump(minimal))
		return
	}

	fmt.Println("no crash found")
}
