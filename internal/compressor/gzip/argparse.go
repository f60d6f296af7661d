package gzip

import (
	"fmt"
	"io"

	tscompressor "github.com/anjor/textstream/internal/compressor"
	"github.com/anjor/textstream/internal/util/argparser"

	"github.com/klauspost/compress/gzip"
	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
)

type config struct {
	Level int `getopt:"--level=[1:9]  Compression level, 1 (fastest) to 9 (smallest)"`
}

type compressor struct{ config }

func NewCompressor(args []string) (_ tscompressor.Compressor, initErrs []string) {

	c := &compressor{}

	optSet := getopt.New()
	if err := options.RegisterSet("", &c.config, optSet); err != nil {
		initErrs = []string{fmt.Sprintf("option set registration failed: %s", err)}
		return
	}

	if args == nil {
		initErrs = argparser.SubHelp(
			"Compresses the output into a single gzip member.",
			optSet,
		)
		return
	}

	if initErrs = argparser.Parse(args, optSet); len(initErrs) > 0 {
		return
	}

	return c, initErrs
}

func (c *compressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, c.Level)
}
