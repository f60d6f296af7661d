package streamcodec

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCodec is returned when a wrapper is built without the codec
	// it is supposed to wrap.
	ErrMissingCodec = errors.New("streamcodec: codec implementation required")

	// ErrUsageConflict is matched by every UsageError.
	ErrUsageConflict = errors.New("streamcodec: single-shot and streaming use of one codec instance conflict")
)

// UsageError reports a call that would mix the single-shot and streaming
// surfaces of one codec instance.
type UsageError struct {
	// Op is the rejected operation, e.g. "encode" or "transform".
	Op string
	// Mode is the mode the instance was committed to.
	Mode Mode
	// Cause is set when the conflict was detected through a held pipe
	// endpoint (pipe.ErrLocked).
	Cause error
}

func (e *UsageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: instance is in %s mode: %v: %v", e.Op, e.Mode, ErrUsageConflict, e.Cause)
	}
	return fmt.Sprintf("%s: instance is in %s mode: %v", e.Op, e.Mode, ErrUsageConflict)
}

func (e *UsageError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrUsageConflict, e.Cause}
	}
	return []error{ErrUsageConflict}
}
