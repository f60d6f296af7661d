package argparser

import (
	"strings"
	"testing"

	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subOpts struct {
	Level int  `getopt:"--level=[1:9]        Compression level"`
	Size  int  `getopt:"--size=[4:MaxChunk]  Chunk size"`
	Fast  bool `getopt:"--fast               Go fast"`
}

func newSet(t *testing.T, o *subOpts) *getopt.Set {
	t.Helper()
	set := getopt.New()
	require.NoError(t, options.RegisterSet("", o, set))
	return set
}

func TestSplitSpec(t *testing.T) {
	assert.Equal(t, []string{"gzip"}, SplitSpec("gzip"))
	assert.Equal(t,
		[]string{"random-size", "--min-size=4", "--max-size=9"},
		SplitSpec("random-size_min-size=4_max-size=9"),
	)
}

func TestParseRanges(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr string
	}{
		{name: "ok", spec: "x_level=3_size=64_fast"},
		{name: "missing", spec: "x_level=3", wantErr: "a value for size must be specified"},
		{name: "too high", spec: "x_level=10_size=64", wantErr: "out of range [1:9]"},
		{name: "above max chunk", spec: "x_level=1_size=2000000000", wantErr: "out of range [4:1048576]"},
		{name: "unknown", spec: "x_bogus", wantErr: "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &subOpts{}
			errs := Parse(SplitSpec(tt.spec), newSet(t, o))
			if tt.wantErr == "" {
				require.Empty(t, errs)
				assert.Equal(t, 3, o.Level)
				assert.Equal(t, 64, o.Size)
				assert.True(t, o.Fast)
				return
			}
			require.NotEmpty(t, errs)
			assert.Contains(t, strings.Join(errs, "\n"), tt.wantErr)
		})
	}
}

func TestSubHelp(t *testing.T) {
	h := SubHelp("Line one\nLine two\n", nil)
	require.Len(t, h, 1)
	assert.Equal(t, "  Line one\n  Line two\n", h[0])

	h = SubHelp("Described", newSet(t, &subOpts{}))
	require.Len(t, h, 3)
	assert.Contains(t, h[2], "level")
}
