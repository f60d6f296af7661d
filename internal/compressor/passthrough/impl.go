package passthrough

import (
	"io"

	tscompressor "github.com/anjor/textstream/internal/compressor"
	"github.com/anjor/textstream/internal/util/argparser"
)

func NewCompressor(args []string) (_ tscompressor.Compressor, initErrs []string) {

	if args == nil {
		initErrs = argparser.SubHelp(
			"Does not compress: encoded output is written as-is. Takes no arguments.\n",
			nil,
		)
		return
	}

	if len(args) > 1 {
		initErrs = append(initErrs, "compressor takes no arguments")
	}

	return nulCompressor{}, initErrs
}

type nulCompressor struct{}

func (nulCompressor) Passthrough() {}

func (nulCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return nopCloser{w}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
