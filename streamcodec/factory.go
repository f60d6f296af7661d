package streamcodec

import (
	"sync"

	"github.com/anjor/textstream/pipe"
)

// streamFactory builds the transform pipe of one codec instance on first
// access and hands out the same pipe forever after.
type streamFactory[In, Out any] struct {
	once  sync.Once
	p     *pipe.Pipe[In, Out]
	guard *modeGuard
	build func() pipe.Transformer[In, Out]
}

func (f *streamFactory[In, Out]) get() *pipe.Pipe[In, Out] {
	f.once.Do(func() {
		f.p = pipe.New[In, Out](f.build())
		f.guard.attach(f.p)
	})
	return f.p
}
