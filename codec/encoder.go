package codec

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// EncoderOptions configures a TextEncoder.
type EncoderOptions struct {
	// Fatal turns unpaired surrogates and unencodable characters into errors
	// instead of substitutions.
	Fatal bool
}

// TextEncoder converts UTF-16 text into bytes of a fixed encoding. Each call
// is independent: no state is carried from one Encode to the next, which is
// why a lead surrogate at the end of one input cannot pair with a trail
// surrogate at the start of the next.
type TextEncoder struct {
	name   string
	family family
	enc    encoding.Encoding
	fatal  bool
}

// NewTextEncoder returns an encoder for label. An empty label selects utf-8.
func NewTextEncoder(label string, opts EncoderOptions) (*TextEncoder, error) {
	r, err := resolve(label)
	if err != nil {
		return nil, err
	}
	return &TextEncoder{
		name:   r.name,
		family: r.family,
		enc:    r.enc,
		fatal:  opts.Fatal,
	}, nil
}

func (e *TextEncoder) Encoding() string { return e.name }
func (e *TextEncoder) Fatal() bool      { return e.fatal }

// Encode converts input. Unpaired surrogates are replaced with U+FFFD unless
// the encoder is fatal.
func (e *TextEncoder) Encode(input Text) ([]byte, error) {
	switch e.family {
	case familyUTF8:
		return e.encodeUTF8(input)
	case familyUTF16LE, familyUTF16BE:
		return e.encodeUTF16(input)
	}
	return e.encodeLegacy(input)
}

func (e *TextEncoder) unpaired(idx int) error {
	return &ConversionError{Op: "encode", Encoding: e.name, Offset: idx, Err: ErrMalformedInput}
}

func (e *TextEncoder) encodeUTF8(input Text) ([]byte, error) {
	out := make([]byte, 0, len(input)+len(input)/2)
	err := scalars(input, func(r rune, idx int, ok bool) error {
		if !ok && e.fatal {
			return e.unpaired(idx)
		}
		out = utf8.AppendRune(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *TextEncoder) encodeUTF16(input Text) ([]byte, error) {
	out := make([]byte, 0, 2*len(input))
	put := func(u uint16) {
		if e.family == familyUTF16BE {
			out = append(out, byte(u>>8), byte(u))
		} else {
			out = append(out, byte(u), byte(u>>8))
		}
	}
	err := scalars(input, func(r rune, idx int, ok bool) error {
		if !ok && e.fatal {
			return e.unpaired(idx)
		}
		if r >= 0x10000 {
			r1, r2 := utf16.EncodeRune(r)
			put(uint16(r1))
			put(uint16(r2))
		} else {
			put(uint16(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *TextEncoder) encodeLegacy(input Text) ([]byte, error) {
	buf := make([]byte, 0, len(input))
	err := scalars(input, func(r rune, idx int, ok bool) error {
		if !ok && e.fatal {
			return e.unpaired(idx)
		}
		buf = utf8.AppendRune(buf, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var enc *encoding.Encoder
	if e.fatal {
		enc = e.enc.NewEncoder()
	} else {
		enc = encoding.HTMLEscapeUnsupported(e.enc.NewEncoder())
	}

	out, err := enc.Bytes(buf)
	if err != nil {
		return nil, &ConversionError{Op: "encode", Encoding: e.name, Offset: len(input), Err: ErrUnencodable}
	}
	return out, nil
}
