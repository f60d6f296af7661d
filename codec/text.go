package codec

import "unicode/utf16"

// Text is a run of UTF-16 code units. Unlike a Go string it can hold a lone
// surrogate, which is exactly what shows up when text is sliced into chunks
// between the two halves of a surrogate pair.
type Text []uint16

// FromString converts a Go string into UTF-16 code units.
func FromString(s string) Text {
	return utf16.Encode([]rune(s))
}

// String converts the code units back into a Go string. Unpaired surrogates
// become U+FFFD.
func (t Text) String() string {
	return string(utf16.Decode(t))
}

// IsLeadSurrogate reports whether u is a high (leading) surrogate.
func IsLeadSurrogate(u uint16) bool { return u >= 0xD800 && u < 0xDC00 }

// IsTrailSurrogate reports whether u is a low (trailing) surrogate.
func IsTrailSurrogate(u uint16) bool { return u >= 0xDC00 && u < 0xE000 }

const replacementUnit = 0xFFFD

func appendRune(t Text, r rune) Text {
	if r < 0x10000 {
		return append(t, uint16(r))
	}
	r1, r2 := utf16.EncodeRune(r)
	return append(t, uint16(r1), uint16(r2))
}

// scalars walks t yielding scalar values; unpaired surrogates are reported
// with ok == false and their unit index.
func scalars(t Text, fn func(r rune, idx int, ok bool) error) error {
	for i := 0; i < len(t); i++ {
		u := t[i]
		switch {
		case IsLeadSurrogate(u) && i+1 < len(t) && IsTrailSurrogate(t[i+1]):
			if err := fn(utf16.DecodeRune(rune(u), rune(t[i+1])), i, true); err != nil {
				return err
			}
			i++
		case IsLeadSurrogate(u) || IsTrailSurrogate(u):
			if err := fn(replacementUnit, i, false); err != nil {
				return err
			}
		default:
			if err := fn(rune(u), i, true); err != nil {
				return err
			}
		}
	}
	return nil
}
