package randomsize

import (
	"fmt"

	tschunker "github.com/anjor/textstream/internal/chunker"
	"github.com/anjor/textstream/internal/util/argparser"

	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
)

func NewChunker(
	args []string,
) (
	_ tschunker.Chunker,
	_ tschunker.InstanceConstants,
	initErrs []string,
) {

	c := &randomSizeChunker{}

	optSet := getopt.New()
	if err := options.RegisterSet("", &c.config, optSet); err != nil {
		initErrs = []string{fmt.Sprintf("option set registration failed: %s", err)}
		return
	}

	if args == nil {
		initErrs = argparser.SubHelp(
			"Splits input into chunks of pseudo-random sizes within [min-size:max-size].\n"+
				"The sequence of sizes is fully determined by the seed, making runs\n"+
				"reproducible while still cutting multi-byte sequences at arbitrary points.",
			optSet,
		)
		return
	}

	// bail early if getopt fails
	if initErrs = argparser.Parse(args, optSet); len(initErrs) > 0 {
		return
	}

	if c.MinSize > c.MaxSize {
		initErrs = append(initErrs, fmt.Sprintf(
			"value for 'min-size' (%d) may not exceed that of 'max-size' (%d)",
			c.MinSize,
			c.MaxSize,
		))
		return
	}

	return c, tschunker.InstanceConstants{
		MinChunkSize: c.MinSize,
		MaxChunkSize: c.MaxSize,
	}, initErrs
}
