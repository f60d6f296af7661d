package codec

// utf8Backend is the WHATWG UTF-8 decoder: every maximal subpart of an
// ill-formed sequence becomes a single U+FFFD.
type utf8Backend struct {
	codePoint rune
	needed    int
	seen      int
	lower     byte
	upper     byte
}

func newUTF8Backend() *utf8Backend {
	b := &utf8Backend{}
	b.reset()
	return b
}

func (b *utf8Backend) reset() {
	b.codePoint, b.needed, b.seen = 0, 0, 0
	b.lower, b.upper = 0x80, 0xBF
}

func (b *utf8Backend) decode(out Text, in []byte, final, fatal bool) (Text, int, error) {

	for i := 0; i < len(in); i++ {
		c := in[i]

		if b.needed == 0 {
			switch {
			case c <= 0x7F:
				out = append(out, uint16(c))
			case c >= 0xC2 && c <= 0xDF:
				b.needed, b.codePoint = 1, rune(c&0x1F)
			case c >= 0xE0 && c <= 0xEF:
				if c == 0xE0 {
					b.lower = 0xA0
				} else if c == 0xED {
					b.upper = 0x9F
				}
				b.needed, b.codePoint = 2, rune(c&0x0F)
			case c >= 0xF0 && c <= 0xF4:
				if c == 0xF0 {
					b.lower = 0x90
				} else if c == 0xF4 {
					b.upper = 0x8F
				}
				b.needed, b.codePoint = 3, rune(c&0x07)
			default:
				if fatal {
					return nil, i, ErrMalformedInput
				}
				out = append(out, replacementUnit)
			}
			continue
		}

		if c < b.lower || c > b.upper {
			// the sequence so far is one error, c gets reprocessed on its own
			b.reset()
			if fatal {
				return nil, i, ErrMalformedInput
			}
			out = append(out, replacementUnit)
			i--
			continue
		}

		b.lower, b.upper = 0x80, 0xBF
		b.codePoint = b.codePoint<<6 | rune(c&0x3F)
		b.seen++
		if b.seen == b.needed {
			out = appendRune(out, b.codePoint)
			b.reset()
		}
	}

	if final && b.needed != 0 {
		b.reset()
		if fatal {
			return nil, len(in), ErrMalformedInput
		}
		out = append(out, replacementUnit)
	}
	return out, 0, nil
}

// utf16Backend decodes UTF-16LE or UTF-16BE. An odd trailing byte or an
// unpaired surrogate becomes a single U+FFFD.
type utf16Backend struct {
	bigEndian     bool
	leadByte      int
	leadSurrogate int
}

func newUTF16Backend(bigEndian bool) *utf16Backend {
	b := &utf16Backend{bigEndian: bigEndian}
	b.reset()
	return b
}

func (b *utf16Backend) reset() {
	b.leadByte, b.leadSurrogate = -1, -1
}

func (b *utf16Backend) decode(out Text, in []byte, final, fatal bool) (Text, int, error) {

	for i, c := range in {
		if b.leadByte < 0 {
			b.leadByte = int(c)
			continue
		}

		var unit uint16
		if b.bigEndian {
			unit = uint16(b.leadByte)<<8 | uint16(c)
		} else {
			unit = uint16(c)<<8 | uint16(b.leadByte)
		}
		b.leadByte = -1

		if b.leadSurrogate >= 0 {
			lead := uint16(b.leadSurrogate)
			b.leadSurrogate = -1
			if IsTrailSurrogate(unit) {
				out = append(out, lead, unit)
				continue
			}
			if fatal {
				return nil, i, ErrMalformedInput
			}
			out = append(out, replacementUnit)
		}

		switch {
		case IsLeadSurrogate(unit):
			b.leadSurrogate = int(unit)
		case IsTrailSurrogate(unit):
			if fatal {
				return nil, i, ErrMalformedInput
			}
			out = append(out, replacementUnit)
		default:
			out = append(out, unit)
		}
	}

	if final && (b.leadByte >= 0 || b.leadSurrogate >= 0) {
		b.reset()
		if fatal {
			return nil, len(in), ErrMalformedInput
		}
		out = append(out, replacementUnit)
	}
	return out, 0, nil
}
