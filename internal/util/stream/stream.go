package stream

import (
	"os"

	"github.com/mattn/go-isatty"
)

// Optimization is a best-effort hint applied to an input or output file
// descriptor. Action returns os.ErrInvalid when the hint does not apply to
// the kind of file given.
type Optimization struct {
	Name   string
	Action func(*os.File, os.FileInfo) error
}

// IsTTY reports whether s is an *os.File attached to a terminal.
func IsTTY(s interface{}) bool {
	f, isFile := s.(*os.File)
	if !isFile || f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
