package xz

import (
	"fmt"
	"io"

	tscompressor "github.com/anjor/textstream/internal/compressor"
	"github.com/anjor/textstream/internal/util/argparser"

	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
	"github.com/ulikunitz/xz"
)

type config struct {
	DictCap int `getopt:"--dict-cap=bytes  LZMA dictionary capacity. Default:"`
}

type compressor struct{ config }

func NewCompressor(args []string) (_ tscompressor.Compressor, initErrs []string) {

	c := &compressor{config: config{DictCap: 8 * 1024 * 1024}}

	optSet := getopt.New()
	if err := options.RegisterSet("", &c.config, optSet); err != nil {
		initErrs = []string{fmt.Sprintf("option set registration failed: %s", err)}
		return
	}

	if args == nil {
		initErrs = argparser.SubHelp(
			"Compresses the output as an xz stream.",
			optSet,
		)
		return
	}

	if initErrs = argparser.Parse(args, optSet); len(initErrs) > 0 {
		return
	}

	wc := c.writerConfig()
	if err := wc.Verify(); err != nil {
		initErrs = append(initErrs, err.Error())
	}

	return c, initErrs
}

func (c *compressor) writerConfig() xz.WriterConfig {
	return xz.WriterConfig{DictCap: c.DictCap}
}

func (c *compressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return c.writerConfig().NewWriter(w)
}
