package pipe

import (
	"context"
	"sync"
)

// Readable is the consumer endpoint of a Pipe.
type Readable[T any] struct {
	q     *queue[T]
	locks *locks
}

// Locked reports whether a Reader currently holds the endpoint.
func (r *Readable[T]) Locked() bool { return r.locks.held(&r.locks.readable) }

// SetHighWaterMark bounds the queue: once n chunks are waiting to be read,
// a Write blocks until the reader takes one or the pipe fails. The bound is
// checked before each transform, so a transform enqueueing several chunks
// can overshoot it. n <= 0 removes the bound.
func (r *Readable[T]) SetHighWaterMark(n int) { r.q.setLimit(n) }

// GetReader claims the endpoint. It fails with ErrLocked if it is held.
func (r *Readable[T]) GetReader() (*Reader[T], error) {
	if err := r.locks.claim(&r.locks.readable); err != nil {
		return nil, err
	}
	return &Reader[T]{r: r}, nil
}

// Reader is an exclusive handle on a Readable.
type Reader[T any] struct {
	r        *Readable[T]
	mu       sync.Mutex
	released bool
}

func (rd *Reader[T]) active() error {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	if rd.released {
		return ErrReleased
	}
	return nil
}

// Read returns the next chunk. It blocks until a chunk is available, the
// pipe ends (io.EOF), the pipe fails (its error), or ctx is done.
func (rd *Reader[T]) Read(ctx context.Context) (chunk T, err error) {
	if err = rd.active(); err != nil {
		return
	}
	return rd.r.q.pop(ctx)
}

// Buffered returns the number of chunks ready to be read.
func (rd *Reader[T]) Buffered() int { return rd.r.q.len() }

// Cancel discards everything queued and fails the pipe with reason, so the
// writing side sees the failure on its next call. It does nothing once the
// Reader has been released.
func (rd *Reader[T]) Cancel(reason error) {
	if rd.active() != nil {
		return
	}
	if reason == nil {
		reason = ErrAborted
	}
	rd.r.q.finish(reason)
}

// ReleaseLock gives the endpoint back. The Reader is unusable afterwards.
func (rd *Reader[T]) ReleaseLock() {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	if !rd.released {
		rd.released = true
		rd.r.locks.release(&rd.r.locks.readable)
	}
}

type sink[T any] interface {
	write(T) error
	close() error
	abort(error)
}

// Writable is the producer endpoint of a Pipe.
type Writable[T any] struct {
	sink  sink[T]
	locks *locks
}

// Locked reports whether a Writer currently holds the endpoint.
func (w *Writable[T]) Locked() bool { return w.locks.held(&w.locks.writable) }

// GetWriter claims the endpoint. It fails with ErrLocked if it is held.
func (w *Writable[T]) GetWriter() (*Writer[T], error) {
	if err := w.locks.claim(&w.locks.writable); err != nil {
		return nil, err
	}
	return &Writer[T]{w: w}, nil
}

// Writer is an exclusive handle on a Writable.
type Writer[T any] struct {
	w        *Writable[T]
	mu       sync.Mutex
	released bool
}

func (wr *Writer[T]) active() error {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if wr.released {
		return ErrReleased
	}
	return nil
}

// Write runs chunk through the transformer. A transformer error fails the
// whole pipe and is returned here, and by every later call on either side.
func (wr *Writer[T]) Write(chunk T) error {
	if err := wr.active(); err != nil {
		return err
	}
	return wr.w.sink.write(chunk)
}

// Close flushes the transformer and ends the readable side.
func (wr *Writer[T]) Close() error {
	if err := wr.active(); err != nil {
		return err
	}
	return wr.w.sink.close()
}

// Abort fails the pipe with reason without flushing. Whatever state the
// transformer holds is simply dropped. A released Writer cannot abort.
func (wr *Writer[T]) Abort(reason error) {
	if wr.active() != nil {
		return
	}
	wr.w.sink.abort(reason)
}

// ReleaseLock gives the endpoint back. The Writer is unusable afterwards.
func (wr *Writer[T]) ReleaseLock() {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if !wr.released {
		wr.released = true
		wr.w.locks.release(&wr.w.locks.writable)
	}
}
