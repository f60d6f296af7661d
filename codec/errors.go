package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedEncoding is returned for labels that do not name an
	// encoding usable by this package.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrMalformedInput is the cause of every fatal conversion failure.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnencodable is returned by fatal encoders for characters the target
	// encoding cannot represent.
	ErrUnencodable = errors.New("character not representable in encoding")
)

// ConversionError records a failed conversion together with the encoding and
// the offset into the input of the failing call. For decoders the offset is in
// bytes, for encoders in code units. An offset equal to the input length means
// the failure was detected at end of stream.
type ConversionError struct {
	Op       string
	Encoding string
	Offset   int
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s %s at offset %d: %v", e.Op, e.Encoding, e.Offset, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func labelError(label string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedEncoding, label)
}
