package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashers(t *testing.T) {
	sizes := map[string]int{
		"sha2-256":    32,
		"blake2b-256": 32,
		"murmur3-128": 16,
		"xxhash64":    8,
	}

	for name, ctor := range AvailableHashers {
		if ctor == nil {
			assert.Equal(t, "none", name)
			continue
		}
		t.Run(name, func(t *testing.T) {
			h := ctor()
			assert.Equal(t, sizes[name], h.Size())

			_, err := h.Write([]byte("abc"))
			require.NoError(t, err)
			first := h.Sum(nil)

			h2 := ctor()
			_, _ = h2.Write([]byte("ab"))
			_, _ = h2.Write([]byte("c"))
			assert.Equal(t, first, h2.Sum(nil))
		})
	}
}

func TestFormatter(t *testing.T) {
	sum := AvailableHashers["sha2-256"]().Sum(nil)

	f32, err := NewFormatter("sha2-256", "base32")
	require.NoError(t, err)
	s := f32(sum)
	assert.True(t, strings.HasPrefix(s, "b"))
	assert.Equal(t, strings.ToLower(s), s)
	assert.Equal(t, "N/A", f32(nil))

	f36, err := NewFormatter("sha2-256", "base36")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f36(sum), "k"))
	assert.NotEqual(t, s[1:], f36(sum)[1:])

	_, err = NewFormatter("sha2-256", "base58")
	assert.Error(t, err)
	_, err = NewFormatter("md5", "base32")
	assert.Error(t, err)
}
