package codec

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// gb18030Backend decodes gb18030, and gbk, which shares its decoder. Sequence
// structure and error recovery are tracked here, byte by byte, so a fatal
// decoder fails on the offending source byte and a sequence cut off at the
// end of input becomes a single U+FFFD. x/text only maps complete sequences
// to code points.
type gb18030Backend struct {
	lookup               transform.Transformer
	first, second, third byte
	scratch              [utf8.UTFMax]byte
}

func newGB18030Backend() *gb18030Backend {
	return &gb18030Backend{lookup: simplifiedchinese.GB18030.NewDecoder()}
}

func (b *gb18030Backend) reset() {
	b.first, b.second, b.third = 0, 0, 0
}

func (b *gb18030Backend) decode(out Text, in []byte, final, fatal bool) (Text, int, error) {

	// bytes given back to the decoder after an error, processed before in[i]
	var redo []byte

	i := 0
	for i < len(in) || len(redo) > 0 {
		var c byte
		if len(redo) > 0 {
			c, redo = redo[0], redo[1:]
		} else {
			c = in[i]
			i++
		}

		r, again, ok := b.step(c)
		if !ok {
			if fatal {
				b.reset()
				return nil, i - 1, ErrMalformedInput
			}
			out = append(out, replacementUnit)
		} else if r >= 0 {
			out = appendRune(out, r)
		}
		if len(again) > 0 {
			redo = append(again, redo...)
		}
	}

	if final && (b.first != 0 || b.second != 0 || b.third != 0) {
		b.reset()
		if fatal {
			return nil, len(in), ErrMalformedInput
		}
		out = append(out, replacementUnit)
	}
	return out, 0, nil
}

// step feeds one byte. r is -1 when nothing is complete yet, again holds
// bytes to feed once more, ok is false on a decoding error.
func (b *gb18030Backend) step(c byte) (r rune, again []byte, ok bool) {

	switch {
	case b.third != 0:
		if c < 0x30 || c > 0x39 {
			again = []byte{b.second, b.third, c}
			b.reset()
			return -1, again, false
		}
		seq := []byte{b.first, b.second, b.third, c}
		b.reset()

		ptr := (int(seq[0])-0x81)*12600 + (int(seq[1])-0x30)*1260 + (int(seq[2])-0x81)*10 + int(seq[3]) - 0x30
		switch {
		case (ptr > 39419 && ptr < 189000) || ptr > 1237575:
			return -1, nil, false
		case ptr == 7457:
			return 0xE7C7, nil, true
		}
		// U+FFFD itself is a valid four-byte sequence
		return b.mapped(seq), nil, true

	case b.second != 0:
		if c >= 0x81 && c <= 0xFE {
			b.third = c
			return -1, nil, true
		}
		again = []byte{b.second, c}
		b.reset()
		return -1, again, false

	case b.first != 0:
		if c >= 0x30 && c <= 0x39 {
			b.second = c
			return -1, nil, true
		}
		lead := b.first
		b.first = 0
		if (c >= 0x40 && c <= 0x7E) || (c >= 0x80 && c <= 0xFE) {
			// no two-byte sequence maps to U+FFFD
			if r := b.mapped([]byte{lead, c}); r != utf8.RuneError {
				return r, nil, true
			}
		}
		if c < 0x80 {
			return -1, []byte{c}, false
		}
		return -1, nil, false

	case c < 0x80:
		return rune(c), nil, true
	case c == 0x80:
		return 0x20AC, nil, true
	case c == 0xFF:
		return -1, nil, false
	}

	b.first = c
	return -1, nil, true
}

// mapped returns the code point of one complete, well-formed sequence, or
// utf8.RuneError when the index has no entry for it.
func (b *gb18030Backend) mapped(seq []byte) rune {
	b.lookup.Reset()
	nDst, _, err := b.lookup.Transform(b.scratch[:], seq, true)
	if err != nil || nDst == 0 {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRune(b.scratch[:nDst])
	return r
}
