package constants

import (
	"os"
	"strconv"
)

// No single chunk handed to a decoder may exceed this.
const MaxChunkSize = 1024 * 1024

type Incomparabe [0]func()

var LongTests bool

func init() {
	LongTests = isTruthy("TEST_TEXTSTREAM_LONG")
}

func isTruthy(varname string) bool {
	envStr := os.Getenv(varname)
	if envStr != "" {
		if num, err := strconv.ParseUint(envStr, 10, 64); err != nil || num != 0 {
			return true
		}
	}
	return false
}

var PerformSanityChecks = true
