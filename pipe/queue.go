package pipe

import (
	"context"
	"io"
	"sync"
)

type queue[T any] struct {
	mu    sync.Mutex
	items []T
	done  bool
	err   error
	// high-water mark, 0 for none
	limit int
	// closed and replaced on every change, wakes blocked readers and writers
	signal chan struct{}
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{signal: make(chan struct{})}
}

func (q *queue[T]) notifyLocked() {
	close(q.signal)
	q.signal = make(chan struct{})
}

func (q *queue[T]) push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done {
		return
	}
	q.items = append(q.items, v)
	q.notifyLocked()
}

// finish ends the queue. A nil err is a normal end: queued items stay
// readable. A non-nil err drops everything queued.
func (q *queue[T]) finish(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return
	}
	if err != nil {
		q.items = nil
		q.err = err
	} else if q.done {
		return
	}
	q.done = true
	q.notifyLocked()
}

func (q *queue[T]) failure() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

func (q *queue[T]) pop(ctx context.Context) (v T, err error) {
	for {
		q.mu.Lock()
		if q.err != nil {
			err = q.err
			q.mu.Unlock()
			return
		}
		if len(q.items) > 0 {
			v = q.items[0]
			var zero T
			q.items[0] = zero
			q.items = q.items[1:]
			if q.limit > 0 {
				q.notifyLocked()
			}
			q.mu.Unlock()
			return v, nil
		}
		if q.done {
			q.mu.Unlock()
			return v, io.EOF
		}
		wait := q.signal
		q.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
}

func (q *queue[T]) setLimit(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.limit = n
	q.notifyLocked()
}

// waitRoom blocks while the queue holds limit items or more. It returns the
// queue's failure if there is one, possibly one that arrived while waiting.
func (q *queue[T]) waitRoom() error {
	for {
		q.mu.Lock()
		if q.err != nil {
			err := q.err
			q.mu.Unlock()
			return err
		}
		if q.done || q.limit <= 0 || len(q.items) < q.limit {
			q.mu.Unlock()
			return nil
		}
		wait := q.signal
		q.mu.Unlock()
		<-wait
	}
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
