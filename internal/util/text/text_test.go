package text

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommify(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Commify64(tt.in))
	}
	assert.Equal(t, "65,536", Commify(65536))
}

func TestAvailableMapKeys(t *testing.T) {
	m := map[string]io.Writer{
		"b":        nil,
		"a":        io.Discard,
		"disabled": nil,
	}
	// unset entries are listed too
	assert.Equal(t, `'a', 'b', 'disabled'`, AvailableMapKeys(m))

	f := map[string]func(){
		"zeta":  func() {},
		"alpha": func() {},
	}
	assert.Equal(t, `'alpha', 'zeta'`, AvailableMapKeys(f))

	assert.Panics(t, func() { AvailableMapKeys([]string{"x"}) })
}
