package streamcodec

import (
	"sync"

	"go.uber.org/zap"
)

// Mode is the usage mode a codec instance has committed to.
type Mode int32

const (
	// ModeUnset: neither surface has been used yet.
	ModeUnset Mode = iota
	// ModeSingleShot: the direct Encode/Decode method has been used.
	ModeSingleShot
	// ModeStreaming: the pipe has processed data, or a single-shot call
	// found its endpoints in use.
	ModeStreaming
)

func (m Mode) String() string {
	switch m {
	case ModeUnset:
		return "unset"
	case ModeSingleShot:
		return "single-shot"
	case ModeStreaming:
		return "streaming"
	}
	return "unknown"
}

// lockable is the part of a pipe the guard needs.
type lockable interface {
	Lock() error
}

// modeGuard arbitrates between the two surfaces of one codec instance. Once
// left, ModeUnset is never re-entered, and single-shot and streaming never
// turn into each other.
//
// The guard never calls into a transformer and only takes the pipe's lock
// table mutex while holding its own, so it cannot deadlock against a pipe
// writer that is waiting on the guard.
type modeGuard struct {
	mu    sync.Mutex
	mode  Mode
	pipe  lockable
	codec string
}

func (g *modeGuard) current() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

// singleShot admits a direct conversion call.
func (g *modeGuard) singleShot(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.mode {
	case ModeSingleShot:
		return nil
	case ModeStreaming:
		g.conflict(op, nil)
		return &UsageError{Op: op, Mode: g.mode}
	}

	if g.pipe != nil {
		// retire the streaming surface for good, unless someone holds it
		if err := g.pipe.Lock(); err != nil {
			g.mode = ModeStreaming
			g.conflict(op, err)
			return &UsageError{Op: op, Mode: g.mode, Cause: err}
		}
	}

	g.mode = ModeSingleShot
	Logger().Debug("codec committed to single-shot use",
		zap.String("codec", g.codec),
		zap.Bool("pipe_retired", g.pipe != nil))
	return nil
}

// streaming admits one transform or flush step of the pipe.
func (g *modeGuard) streaming(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.mode == ModeSingleShot {
		g.conflict(op, nil)
		return &UsageError{Op: op, Mode: g.mode}
	}
	if g.mode == ModeUnset {
		g.mode = ModeStreaming
		Logger().Debug("codec committed to streaming use", zap.String("codec", g.codec))
	}
	return nil
}

// attach records a freshly built pipe. If the instance is already
// single-shot the pipe is locked before anyone can see it.
func (g *modeGuard) attach(p lockable) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pipe = p
	if g.mode == ModeSingleShot {
		// a new pipe has no holders, this cannot fail
		_ = p.Lock()
	}
}

func (g *modeGuard) conflict(op string, cause error) {
	fields := []zap.Field{
		zap.String("codec", g.codec),
		zap.String("op", op),
		zap.Stringer("mode", g.mode),
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	Logger().Warn("codec usage conflict", fields...)
}
