package streamcodec

import (
	"github.com/anjor/textstream/codec"
	"github.com/anjor/textstream/pipe"
)

// decodeTransformer feeds byte chunks to the decoder of its instance in
// streaming mode. Partial sequences are kept by the decoder itself.
type decodeTransformer struct {
	dec *Decoder
}

func (t *decodeTransformer) Transform(chunk []byte, c *pipe.Controller[codec.Text]) error {
	out, err := t.dec.streamDecode("transform", chunk, true)
	if err != nil {
		return err
	}
	c.Enqueue(out)
	return nil
}

func (t *decodeTransformer) Flush(c *pipe.Controller[codec.Text]) error {
	out, err := t.dec.streamDecode("flush", nil, false)
	if err != nil {
		return err
	}
	if len(out) > 0 {
		c.Enqueue(out)
	}
	return nil
}
