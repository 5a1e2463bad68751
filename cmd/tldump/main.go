// Command tldump decodes one or more files (or stdin) and dumps the
// resulting value tree with spew, mirroring the teacher's dsrl tool.
package main

import (
	"io/ioutil"
	"os"

	"github.com/davecgh/go-spew/spew"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	tl "github.com/tlcodec/tl"
)

var verbose = flag.BoolP("verbose", "v", false, "enable the codec's diagnostic logging (dictionary growth warnings)")

func process(fname string, b []byte) {
	dec := tl.NewDecoder(b)
	v, err := dec.Decode()
	if err != nil {
		zap.L().Sugar().Fatalf("error processing %s: %s", fname, err)
	}
	spew.Dump(v)
}

func main() {
	flag.Parse()

	if *verbose {
		logger, _ := zap.NewDevelopment()
		tl.SetLogger(logger)
		zap.ReplaceGlobals(logger)
	}

	if flag.NArg() == 0 {
		b, _ := ioutil.ReadAll(os.Stdin)
		process("stdin", b)
		return
	}

	for _, arg := range flag.Args() {
		b, err := ioutil.ReadFile(arg)
		if err != nil {
			zap.L().Sugar().Fatalf("reading %s: %s", arg, err)
		}
		process(arg, b)
	}
}
