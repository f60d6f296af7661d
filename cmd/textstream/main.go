package main

import (
	"fmt"
	"os"

	"github.com/anjor/textstream"
	"github.com/anjor/textstream/internal/util/stream"

	"go.uber.org/zap"
)

// regular files smaller than this are not worth a read-ahead hint
const readHintThreshold = 16 * 1024 * 1024

func main() {

	inStat, statErr := os.Stdin.Stat()
	if statErr != nil {
		fmt.Fprintf(os.Stderr, "unexpected error stat()ing stdIN: %s\n", statErr)
		os.Exit(1)
	}

	// Parse CLI and initialize everything
	// On error it will exit on its own
	ts := textstream.NewFromArgv(os.Args)
	logger := ts.Logger()

	if stream.IsTTY(os.Stdin) {
		fmt.Fprint(
			os.Stderr,
			"------\nYou seem to be feeding text straight from a terminal, an odd choice...\nNevertheless will proceed to read until EOF ( Ctrl+D )\n------\n",
		)
	} else if !inStat.Mode().IsRegular() || inStat.Size() > readHintThreshold {
		applyReadOptimizations(logger, os.Stdin, inStat)
	}

	processErr := ts.ProcessReader(
		os.Stdin,
		nil,
	)
	if processErr != nil {
		ts.Destroy()
		logger.Fatal("unexpected error processing stdIN", zap.Error(processErr))
	}

	ts.OutputSummary()
	ts.Destroy()
}

// An optimization returns os.ErrInvalid when it can't be applied to the file type
func applyReadOptimizations(logger *zap.Logger, f *os.File, s os.FileInfo) (applied []string) {
	for _, opt := range stream.ReadOptimizations {
		if err := opt.Action(f, s); err == nil {
			applied = append(applied, opt.Name)
		} else if err != os.ErrInvalid {
			logger.Warn("failed to apply read optimization hint",
				zap.String("hint", opt.Name),
				zap.Error(err),
			)
		}
	}
	logger.Debug("read optimizations", zap.Strings("applied", applied))
	return
}
