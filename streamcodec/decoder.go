package streamcodec

import (
	"sync"

	"github.com/anjor/textstream/codec"
	"github.com/anjor/textstream/pipe"
)

// RawDecoder converts bytes to text. With stream set it keeps incomplete
// trailing sequences for the next call; without it, it ends the session.
// *codec.TextDecoder satisfies it.
type RawDecoder interface {
	Decode(input []byte, stream bool) (codec.Text, error)
}

// Decoder wraps a RawDecoder with the dual single-shot/streaming surface.
type Decoder struct {
	raw     RawDecoder
	mu      sync.Mutex
	guard   *modeGuard
	streams *streamFactory[[]byte, codec.Text]
}

// NewDecoder wraps raw. It fails with ErrMissingCodec if raw is nil.
func NewDecoder(raw RawDecoder) (*Decoder, error) {
	if raw == nil {
		return nil, ErrMissingCodec
	}

	d := &Decoder{
		raw:   raw,
		guard: &modeGuard{codec: codecName(raw)},
	}
	d.streams = &streamFactory[[]byte, codec.Text]{
		guard: d.guard,
		build: func() pipe.Transformer[[]byte, codec.Text] {
			return &decodeTransformer{dec: d}
		},
	}
	return d, nil
}

// OpenDecoder is NewDecoder over a codec.TextDecoder for label.
func OpenDecoder(label string, opts codec.DecoderOptions) (*Decoder, error) {
	raw, err := codec.NewTextDecoder(label, opts)
	if err != nil {
		return nil, err
	}
	return NewDecoder(raw)
}

// Encoding returns the name of the wrapped encoding, if it reports one.
func (d *Decoder) Encoding() string { return d.guard.codec }

// Mode returns the usage mode the instance has committed to.
func (d *Decoder) Mode() Mode { return d.guard.current() }

// Decode converts input directly, passing stream through to the wrapped
// decoder. It fails with a *UsageError once the instance has been used for
// streaming.
func (d *Decoder) Decode(input []byte, stream bool) (codec.Text, error) {
	if err := d.guard.singleShot("decode"); err != nil {
		return nil, err
	}
	return d.decode(input, stream)
}

// Readable returns the endpoint decoded text chunks are read from.
func (d *Decoder) Readable() *pipe.Readable[codec.Text] { return d.streams.get().Readable() }

// Writable returns the endpoint byte chunks are written to.
func (d *Decoder) Writable() *pipe.Writable[[]byte] { return d.streams.get().Writable() }

func (d *Decoder) streamDecode(op string, input []byte, stream bool) (codec.Text, error) {
	if err := d.guard.streaming(op); err != nil {
		return nil, err
	}
	return d.decode(input, stream)
}

func (d *Decoder) decode(input []byte, stream bool) (codec.Text, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw.Decode(input, stream)
}
