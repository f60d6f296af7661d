package codec

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const legacyScratchSize = 4096

// legacyBackend drives an x/text decoder. Bytes the transformer could not yet
// consume (ErrShortSrc) are kept in pending until more input arrives.
//
// x/text substitutes U+FFFD for malformed input and reports no error, so a
// fatal decoder treats any U+FFFD it produces as malformed input. None of the
// encodings decoded here can represent U+FFFD; gb18030 and gbk, which can,
// have their own backend.
type legacyBackend struct {
	t       transform.Transformer
	pending []byte
	scratch []byte
}

func newLegacyBackend(enc encoding.Encoding) *legacyBackend {
	return &legacyBackend{
		t:       enc.NewDecoder(),
		scratch: make([]byte, legacyScratchSize),
	}
}

func (b *legacyBackend) reset() {
	b.t.Reset()
	b.pending = b.pending[:0]
}

func (b *legacyBackend) decode(out Text, in []byte, final, fatal bool) (Text, int, error) {

	src := in
	if len(b.pending) > 0 {
		src = append(b.pending, in...)
	}
	held := len(src) - len(in)

	var utf8Out []byte
	consumed := 0
	for {
		nDst, nSrc, err := b.t.Transform(b.scratch, src[consumed:], final)
		utf8Out = append(utf8Out, b.scratch[:nDst]...)
		consumed += nSrc

		if err == nil {
			break
		} else if errors.Is(err, transform.ErrShortDst) {
			continue
		} else if errors.Is(err, transform.ErrShortSrc) && !final {
			break
		}
		b.reset()
		return nil, 0, ErrMalformedInput
	}

	b.pending = append(b.pending[:0], src[consumed:]...)
	if final {
		b.reset()
	}

	for len(utf8Out) > 0 {
		r, size := utf8.DecodeRune(utf8Out)
		if r == utf8.RuneError && fatal {
			b.reset()
			// best effort: the transformer does not report where it substituted
			off := consumed - held
			if off < 0 {
				off = 0
			}
			return nil, off, ErrMalformedInput
		}
		out = appendRune(out, r)
		utf8Out = utf8Out[size:]
	}
	return out, 0, nil
}
