package tscompressor

import "io"

// Compressor wraps the final output of every stream. The returned writer is
// closed once, after the last stream.
type Compressor interface {
	NewWriter(w io.Writer) (io.WriteCloser, error)
}

// Initializer builds a compressor from its CLI sub-arguments. A nil args
// slice asks for the help text instead, returned as initErrorStrings.
type Initializer func(
	compressorCLISubArgs []string,
) (instance Compressor, initErrorStrings []string)

// Passthrough reports whether c leaves the output untouched.
func Passthrough(c Compressor) bool {
	_, isNop := c.(interface{ Passthrough() })
	return isNop
}
