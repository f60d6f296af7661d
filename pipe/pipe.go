// Package pipe implements a transform pipe: a writable endpoint whose chunks
// run through a Transformer, and a readable endpoint that hands out whatever
// the transformer enqueued, in order.
//
// Writes are synchronous. The transformer runs on the writing goroutine and
// its output is queued before Write returns. By default the queue is
// unbounded; Readable.SetHighWaterMark makes Write wait for the reader once
// that many chunks are pending. Each endpoint can be locked by at most one
// Reader or Writer at a time, and Pipe.Lock retires both endpoints for good.
package pipe

import (
	"errors"
	"sync"
)

var (
	// ErrLocked is returned when claiming an endpoint that is already held.
	ErrLocked = errors.New("pipe: endpoint is locked")

	// ErrClosed is returned when writing to a pipe after Close.
	ErrClosed = errors.New("pipe: write after close")

	// ErrReleased is returned by a Reader or Writer after ReleaseLock.
	ErrReleased = errors.New("pipe: lock released")

	// ErrAborted is the failure recorded by Abort or Cancel without a reason.
	ErrAborted = errors.New("pipe: aborted")
)

// Transformer turns input chunks into zero or more output chunks.
type Transformer[In, Out any] interface {
	// Transform is called once per written chunk, in order.
	Transform(chunk In, c *Controller[Out]) error
	// Flush is called once, after the last chunk, when the writer closes.
	Flush(c *Controller[Out]) error
}

// Controller is handed to a Transformer to emit output.
type Controller[Out any] struct {
	q *queue[Out]
}

// Enqueue appends chunk to the readable side.
func (c *Controller[Out]) Enqueue(chunk Out) {
	c.q.push(chunk)
}

type locks struct {
	mu       sync.Mutex
	readable bool
	writable bool
}

func (l *locks) claim(flag *bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if *flag {
		return ErrLocked
	}
	*flag = true
	return nil
}

func (l *locks) release(flag *bool) {
	l.mu.Lock()
	*flag = false
	l.mu.Unlock()
}

func (l *locks) held(flag *bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *flag
}

// Pipe connects a Writable[In] to a Readable[Out] through a Transformer.
type Pipe[In, Out any] struct {
	t     Transformer[In, Out]
	locks *locks
	q     *queue[Out]

	// serializes transformer calls, guards closed
	writeMu sync.Mutex
	closed  bool

	readable *Readable[Out]
	writable *Writable[In]
}

// New returns a pipe driving t.
func New[In, Out any](t Transformer[In, Out]) *Pipe[In, Out] {
	p := &Pipe[In, Out]{
		t:     t,
		locks: &locks{},
		q:     newQueue[Out](),
	}
	p.readable = &Readable[Out]{q: p.q, locks: p.locks}
	p.writable = &Writable[In]{sink: p, locks: p.locks}
	return p
}

// Readable returns the consumer endpoint.
func (p *Pipe[In, Out]) Readable() *Readable[Out] { return p.readable }

// Writable returns the producer endpoint.
func (p *Pipe[In, Out]) Writable() *Writable[In] { return p.writable }

// Lock claims both endpoints permanently. It fails with ErrLocked, claiming
// nothing, if either endpoint is already held.
func (p *Pipe[In, Out]) Lock() error {
	p.locks.mu.Lock()
	defer p.locks.mu.Unlock()
	if p.locks.readable || p.locks.writable {
		return ErrLocked
	}
	p.locks.readable, p.locks.writable = true, true
	return nil
}

// Err returns the failure the pipe ended with, if any.
func (p *Pipe[In, Out]) Err() error { return p.q.failure() }

func (p *Pipe[In, Out]) write(chunk In) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.checkOpen(); err != nil {
		return err
	}
	if err := p.q.waitRoom(); err != nil {
		return err
	}
	if err := p.t.Transform(chunk, &Controller[Out]{q: p.q}); err != nil {
		p.q.finish(err)
		return err
	}
	return nil
}

func (p *Pipe[In, Out]) close() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.checkOpen(); err != nil {
		return err
	}
	if err := p.t.Flush(&Controller[Out]{q: p.q}); err != nil {
		p.q.finish(err)
		return err
	}

	p.closed = true
	p.q.finish(nil)
	return nil
}

// abort does not wait for writeMu: it may be called while a transform runs.
func (p *Pipe[In, Out]) abort(reason error) {
	if reason == nil {
		reason = ErrAborted
	}
	p.q.finish(reason)
}

// checkOpen must be called with writeMu held.
func (p *Pipe[In, Out]) checkOpen() error {
	if err := p.q.failure(); err != nil {
		return err
	}
	if p.closed {
		return ErrClosed
	}
	return nil
}
