package codec

// DecoderOptions configures a TextDecoder.
type DecoderOptions struct {
	// Fatal turns malformed input into an error instead of U+FFFD.
	Fatal bool
	// IgnoreBOM keeps a leading byte order mark in the output.
	IgnoreBOM bool
}

// backend is the per-encoding half of a decoder. It owns every byte of a
// partial sequence between calls.
type backend interface {
	// decode appends the code units decoded from in to out. Unless final is
	// set, a trailing incomplete sequence is retained for the next call.
	// With fatal set the first error stops decoding and its input offset is
	// returned.
	decode(out Text, in []byte, final, fatal bool) (Text, int, error)
	reset()
}

// TextDecoder converts bytes of a fixed encoding into UTF-16 text, optionally
// across several calls. A call with stream set leaves any partial byte
// sequence buffered inside the decoder; the next call without it finishes the
// session, and the call after that starts a new one.
//
// A TextDecoder is not safe for concurrent use.
type TextDecoder struct {
	name      string
	family    family
	fatal     bool
	ignoreBOM bool

	be         backend
	bomSeen    bool
	doNotFlush bool
}

// NewTextDecoder returns a decoder for label. An empty label selects utf-8.
func NewTextDecoder(label string, opts DecoderOptions) (*TextDecoder, error) {
	r, err := resolve(label)
	if err != nil {
		return nil, err
	}

	d := &TextDecoder{
		name:      r.name,
		family:    r.family,
		fatal:     opts.Fatal,
		ignoreBOM: opts.IgnoreBOM,
	}
	switch r.family {
	case familyUTF8:
		d.be = newUTF8Backend()
	case familyUTF16LE:
		d.be = newUTF16Backend(false)
	case familyUTF16BE:
		d.be = newUTF16Backend(true)
	default:
		if r.name == "gb18030" || r.name == "gbk" {
			d.be = newGB18030Backend()
		} else {
			d.be = newLegacyBackend(r.enc)
		}
	}
	return d, nil
}

func (d *TextDecoder) Encoding() string { return d.name }
func (d *TextDecoder) Fatal() bool      { return d.fatal }
func (d *TextDecoder) IgnoreBOM() bool  { return d.ignoreBOM }

// Decode converts input. With stream set, bytes of an incomplete trailing
// sequence are held back for the next call. Decode(nil, false) finishes a
// session, yielding U+FFFD (or an error when fatal) for any bytes still held.
func (d *TextDecoder) Decode(input []byte, stream bool) (Text, error) {

	if !d.doNotFlush {
		d.be.reset()
		d.bomSeen = false
	}
	d.doNotFlush = stream

	out, off, err := d.be.decode(make(Text, 0, len(input)), input, !stream, d.fatal)
	if err != nil {
		// a failed session is over: the next call starts clean
		d.doNotFlush = false
		return nil, &ConversionError{Op: "decode", Encoding: d.name, Offset: off, Err: err}
	}

	if !d.ignoreBOM && !d.bomSeen && d.family != familyLegacy && len(out) > 0 {
		d.bomSeen = true
		if out[0] == 0xFEFF {
			out = out[1:]
		}
	}
	return out, nil
}
