//go:build linux

package stream

import (
	"os"

	"golang.org/x/sys/unix"
)

// pipes are grown to this size when reading from one
const pipeSize = 1024 * 1024

var ReadOptimizations = []Optimization{
	{
		Name: "sequential read-ahead",
		Action: func(f *os.File, s os.FileInfo) error {
			if !s.Mode().IsRegular() {
				return os.ErrInvalid
			}
			return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
		},
	},
	{
		Name: "pipe buffer size",
		Action: func(f *os.File, s os.FileInfo) error {
			if s.Mode()&os.ModeNamedPipe == 0 {
				return os.ErrInvalid
			}
			_, err := unix.FcntlInt(f.Fd(), unix.F_SETPIPE_SZ, pipeSize)
			return err
		},
	},
}
