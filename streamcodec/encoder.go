package streamcodec

import (
	"sync"

	"github.com/anjor/textstream/codec"
	"github.com/anjor/textstream/pipe"
)

// RawEncoder converts a whole text to bytes. *codec.TextEncoder satisfies it.
type RawEncoder interface {
	Encode(input codec.Text) ([]byte, error)
}

// Encoder wraps a RawEncoder with the dual single-shot/streaming surface.
type Encoder struct {
	raw RawEncoder
	// serializes calls into raw
	mu      sync.Mutex
	guard   *modeGuard
	streams *streamFactory[codec.Text, []byte]
}

// NewEncoder wraps raw. It fails with ErrMissingCodec if raw is nil.
func NewEncoder(raw RawEncoder) (*Encoder, error) {
	if raw == nil {
		return nil, ErrMissingCodec
	}

	e := &Encoder{
		raw:   raw,
		guard: &modeGuard{codec: codecName(raw)},
	}
	e.streams = &streamFactory[codec.Text, []byte]{
		guard: e.guard,
		build: func() pipe.Transformer[codec.Text, []byte] {
			return &encodeTransformer{enc: e}
		},
	}
	return e, nil
}

// OpenEncoder is NewEncoder over a codec.TextEncoder for label.
func OpenEncoder(label string, opts codec.EncoderOptions) (*Encoder, error) {
	raw, err := codec.NewTextEncoder(label, opts)
	if err != nil {
		return nil, err
	}
	return NewEncoder(raw)
}

// Encoding returns the name of the wrapped encoding, if it reports one.
func (e *Encoder) Encoding() string { return e.guard.codec }

// Mode returns the usage mode the instance has committed to.
func (e *Encoder) Mode() Mode { return e.guard.current() }

// Encode converts input in one call. It fails with a *UsageError once the
// instance has been used for streaming.
func (e *Encoder) Encode(input codec.Text) ([]byte, error) {
	if err := e.guard.singleShot("encode"); err != nil {
		return nil, err
	}
	return e.encode(input)
}

// Readable returns the endpoint encoded byte chunks are read from.
func (e *Encoder) Readable() *pipe.Readable[[]byte] { return e.streams.get().Readable() }

// Writable returns the endpoint text chunks are written to.
func (e *Encoder) Writable() *pipe.Writable[codec.Text] { return e.streams.get().Writable() }

func (e *Encoder) streamEncode(op string, input codec.Text) ([]byte, error) {
	if err := e.guard.streaming(op); err != nil {
		return nil, err
	}
	return e.encode(input)
}

func (e *Encoder) encode(input codec.Text) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.raw.Encode(input)
}

func codecName(raw interface{}) string {
	if n, ok := raw.(interface{ Encoding() string }); ok {
		return n.Encoding()
	}
	return ""
}
