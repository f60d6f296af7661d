package randomsize

import (
	"encoding/binary"

	tschunker "github.com/anjor/textstream/internal/chunker"

	"github.com/twmb/murmur3"
)

type config struct {
	MinSize int    `getopt:"--min-size=[1:MaxChunk]  Smallest chunk to emit"`
	MaxSize int    `getopt:"--max-size=[1:MaxChunk]  Largest chunk to emit"`
	Seed    uint64 `getopt:"--seed=uint              Seed of the size sequence. Default:"`
}

type randomSizeChunker struct {
	config
	// index of the next chunk within the size sequence
	seq uint64
}

// nextSize is a pure function of seed and position, so a chunk that could
// not be emitted for lack of data gets the same size on the next call.
func (c *randomSizeChunker) nextSize() int {
	span := uint64(c.MaxSize - c.MinSize + 1)
	if span == 1 {
		return c.MinSize
	}

	var b [8]byte
	binary.BigEndian.PutUint64(b[:], c.seq)
	return c.MinSize + int(murmur3.SeedSum64(c.Seed, b[:])%span)
}

func (c *randomSizeChunker) Split(
	buf []byte,
	useEntireBuffer bool,
	cb tschunker.SplitResultCallback,
) error {

	var curIdx int
	for {
		size := c.nextSize()
		if curIdx+size > len(buf) {
			break
		}
		if err := cb(tschunker.Chunk{Size: size}); err != nil {
			return err
		}
		c.seq++
		curIdx += size
	}

	if curIdx < len(buf) && useEntireBuffer {
		c.seq++
		return cb(tschunker.Chunk{Size: len(buf) - curIdx})
	}
	return nil
}
