package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReadOptimizationsOnRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("some text"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	st, err := f.Stat()
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	applied := applyReadOptimizations(zap.New(core), f, st)

	assert.Zero(t, logs.FilterMessage("failed to apply read optimization hint").Len())
	if runtime.GOOS == "linux" {
		assert.Equal(t, []string{"sequential read-ahead"}, applied)
	} else {
		assert.Empty(t, applied)
	}
}

func TestReadOptimizationsOnPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	st, err := r.Stat()
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	applied := applyReadOptimizations(zap.New(core), r, st)

	if runtime.GOOS == "linux" {
		// growing a pipe may be refused by a low /proc/sys/fs/pipe-max-size
		assert.Equal(t, len(applied)+logs.FilterMessage("failed to apply read optimization hint").Len(), 1)
	} else {
		assert.Empty(t, applied)
	}
}
