package fixedsize

import (
	tschunker "github.com/anjor/textstream/internal/chunker"
)

type fixedSizeChunker struct {
	size int
}

func (c *fixedSizeChunker) Split(
	buf []byte,
	useEntireBuffer bool,
	cb tschunker.SplitResultCallback,
) (err error) {

	curIdx := c.size

	for curIdx <= len(buf) {
		if err = cb(tschunker.Chunk{Size: c.size}); err != nil {
			return
		}
		curIdx += c.size
	}

	if curIdx-c.size < len(buf) && useEntireBuffer {
		err = cb(tschunker.Chunk{Size: len(buf) - (curIdx - c.size)})
	}
	return
}
