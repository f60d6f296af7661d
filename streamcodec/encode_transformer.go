package streamcodec

import (
	"github.com/anjor/textstream/codec"
	"github.com/anjor/textstream/pipe"
)

// encodeTransformer feeds text chunks to the encoder of its instance. A lead
// surrogate ending a chunk is held back until the next chunk, so a pair
// sliced by a chunk boundary is still encoded as one character.
type encodeTransformer struct {
	enc *Encoder
	// zero or one code unit
	carry codec.Text
}

func (t *encodeTransformer) Transform(chunk codec.Text, c *pipe.Controller[[]byte]) error {
	input := chunk
	if len(t.carry) > 0 {
		input = make(codec.Text, 0, len(t.carry)+len(chunk))
		input = append(append(input, t.carry...), chunk...)
		t.carry = nil
	}

	if n := len(input); n > 0 && codec.IsLeadSurrogate(input[n-1]) {
		t.carry = codec.Text{input[n-1]}
		input = input[:n-1]
	}

	out, err := t.enc.streamEncode("transform", input)
	if err != nil {
		return err
	}
	c.Enqueue(out)
	return nil
}

func (t *encodeTransformer) Flush(c *pipe.Controller[[]byte]) error {
	if len(t.carry) == 0 {
		return nil
	}

	// the encoder decides what a lone lead surrogate becomes
	out, err := t.enc.streamEncode("flush", t.carry)
	if err != nil {
		return err
	}
	t.carry = nil
	c.Enqueue(out)
	return nil
}
