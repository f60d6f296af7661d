package tschunker

import (
	"github.com/anjor/textstream/internal/constants"
)

type InstanceConstants struct {
	_            constants.Incomparabe
	MinChunkSize int
	MaxChunkSize int
}

// Initializer builds a chunker from its CLI sub-arguments. A nil args slice
// asks for the help text instead, returned as initErrorStrings.
type Initializer func(
	chunkerCLISubArgs []string,
) (
	instance Chunker,
	constants InstanceConstants,
	initErrorStrings []string,
)

// Chunker decides where the byte stream is cut before it is handed to the
// decoder. Chunk boundaries carry no meaning for the text: the decoder
// reassembles sequences cut in half.
type Chunker interface {
	// Split reports consecutive chunks of rawDataBuffer through
	// resultCallback. Unless useEntireBuffer is set, a trailing remainder too
	// short for a full chunk may be left unreported, to be offered again
	// with more data appended.
	Split(
		rawDataBuffer []byte,
		useEntireBuffer bool,
		resultCallback SplitResultCallback,
	) error
}

type SplitResultCallback func(
	singleChunkingResult Chunk,
) error

type Chunk struct {
	Size int
}
