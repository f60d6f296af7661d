package pipe

import (
	"context"
	"errors"
	"io"
)

// Copy forwards every chunk from src to dst and closes dst once src ends.
// A failure on src aborts dst, a failure on dst cancels src; either way the
// first error is returned.
func Copy[T any](ctx context.Context, dst *Writer[T], src *Reader[T]) error {
	for {
		chunk, err := src.Read(ctx)
		if errors.Is(err, io.EOF) {
			return dst.Close()
		} else if err != nil {
			dst.Abort(err)
			return err
		}

		if err := dst.Write(chunk); err != nil {
			src.Cancel(err)
			return err
		}
	}
}
