package zstd

import (
	"fmt"
	"io"

	tscompressor "github.com/anjor/textstream/internal/compressor"
	"github.com/anjor/textstream/internal/util/argparser"

	"github.com/klauspost/compress/zstd"
	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
)

type config struct {
	Level       int `getopt:"--level=[1:22]        zstd-equivalent compression level"`
	Concurrency int `getopt:"--concurrency=integer Encoder goroutines, 0 for GOMAXPROCS. Default:"`
}

type compressor struct{ config }

func NewCompressor(args []string) (_ tscompressor.Compressor, initErrs []string) {

	c := &compressor{config: config{Concurrency: 1}}

	optSet := getopt.New()
	if err := options.RegisterSet("", &c.config, optSet); err != nil {
		initErrs = []string{fmt.Sprintf("option set registration failed: %s", err)}
		return
	}

	if args == nil {
		initErrs = argparser.SubHelp(
			"Compresses the output as a zstd stream. The level is mapped onto the\n"+
				"closest of the four encoder speeds the implementation provides.",
			optSet,
		)
		return
	}

	if initErrs = argparser.Parse(args, optSet); len(initErrs) > 0 {
		return
	}

	if c.Concurrency < 0 {
		initErrs = append(initErrs, "value of 'concurrency' may not be negative")
	}

	return c, initErrs
}

func (c *compressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	opts := []zstd.EOption{
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.Level)),
	}
	if c.Concurrency > 0 {
		opts = append(opts, zstd.WithEncoderConcurrency(c.Concurrency))
	}
	return zstd.NewWriter(w, opts...)
}
