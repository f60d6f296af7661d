package fixedsize

import (
	"fmt"
	"strconv"

	tschunker "github.com/anjor/textstream/internal/chunker"
	"github.com/anjor/textstream/internal/constants"
	"github.com/anjor/textstream/internal/util/argparser"
	"github.com/anjor/textstream/internal/util/text"
)

func NewChunker(
	args []string,
) (
	_ tschunker.Chunker,
	_ tschunker.InstanceConstants,
	initErrs []string,
) {

	// on nil-args the "error" is the help text to be incorporated into
	// the larger help display
	if args == nil {
		initErrs = argparser.SubHelp(
			"Splits input into equally sized chunks. Requires a single parameter: the\n"+
				"size of each chunk in bytes (default: 65536)\n",
			nil,
		)
		return
	}

	c := fixedSizeChunker{}

	if len(args) != 2 {
		initErrs = append(initErrs, "chunker requires an integer argument, the size of each chunk in bytes")
	} else {
		sizearg, err := strconv.ParseUint(
			args[1][2:], // stripping off '--'
			10,
			25, // 25bits == 32 * 1024 * 1024 == 32MiB
		)
		if err != nil {
			initErrs = append(initErrs, fmt.Sprintf("argument parse failed: %s", err))
		} else if sizearg == 0 {
			initErrs = append(initErrs, "chunk size must be at least 1 byte")
		} else {
			c.size = int(sizearg)
		}
	}

	if c.size > constants.MaxChunkSize {
		initErrs = append(initErrs, fmt.Sprintf(
			"provided chunk size '%s' exceeds specified maximum chunk size '%s'",
			text.Commify(c.size),
			text.Commify(constants.MaxChunkSize),
		))
	}

	return &c, tschunker.InstanceConstants{
		MinChunkSize: c.size,
		MaxChunkSize: c.size,
	}, initErrs
}
