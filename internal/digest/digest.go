// Package digest provides the hash functions available for fingerprinting
// transcoded output, and the multibase renderings of their sums.
package digest

import (
	"encoding/base32"
	"fmt"
	"hash"

	"github.com/cespare/xxhash/v2"
	sha256 "github.com/minio/sha256-simd"
	"github.com/multiformats/go-base36"
	"github.com/twmb/murmur3"
	"golang.org/x/crypto/blake2b"
)

// AvailableHashers maps hash names to constructors. "none" is registered
// with a nil constructor: it disables digesting.
var AvailableHashers = map[string]func() hash.Hash{
	"none":     nil,
	"sha2-256": sha256.New,
	"blake2b-256": func() hash.Hash {
		// only fails for keys longer than 64 bytes
		h, _ := blake2b.New256(nil)
		return h
	},
	"murmur3-128": func() hash.Hash { return murmur3.New128() },
	"xxhash64":    func() hash.Hash { return xxhash.New() },
}

// One-byte tags identifying the hash function in a formatted digest,
// followed by the sum length.
var prefixes = map[string]byte{
	"sha2-256":    0x12,
	"blake2b-256": 0xa0,
	"murmur3-128": 0x22,
	"xxhash64":    0xb3,
}

var b32Encoder = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// Formatter renders a sum with a multibase prefix: "b" for base32, "k" for
// base36.
type Formatter func(sum []byte) string

// NewFormatter returns the formatter for hashName sums in multibase.
func NewFormatter(hashName, multibase string) (Formatter, error) {
	if _, known := AvailableHashers[hashName]; !known {
		return nil, fmt.Errorf("unknown hash function '%s'", hashName)
	}
	prefix := prefixes[hashName]

	tagged := func(sum []byte) []byte {
		return append([]byte{prefix, byte(len(sum))}, sum...)
	}

	switch multibase {
	case "base32":
		return func(sum []byte) string {
			if sum == nil {
				return "N/A"
			}
			return "b" + b32Encoder.EncodeToString(tagged(sum))
		}, nil
	case "base36":
		return func(sum []byte) string {
			if sum == nil {
				return "N/A"
			}
			return "k" + base36.EncodeToStringLc(tagged(sum))
		}, nil
	}
	return nil, fmt.Errorf("unsupported multibase '%s'", multibase)
}
