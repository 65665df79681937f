package dispatch

import (
	"errors"
	"fmt"
)

var (
	ErrStoreNil          = errors.New("event store cannot be nil")
	ErrManagerNil        = errors.New("queue manager cannot be nil")
	ErrDirectoryNil      = errors.New("subscriber directory cannot be nil")
	ErrSenderNil         = errors.New("email sender cannot be nil")
	ErrEventNotFound     = errors.New("event not found")
	ErrIllegalTransition = errors.New("illegal event status transition")
	ErrInvalidInput      = errors.New("invalid enqueue input")
	ErrStoreRead         = errors.New("failed to read event store")
	ErrStoreWrite        = errors.New("failed to write event store")
	ErrLocked            = errors.New("another tick is in progress")
	ErrDirectory         = errors.New("failed to fetch active recipients")
)

// Kind separates conditions a trigger should simply retry from ones that need a human.
type Kind int

const (
	KindRetryable Kind = iota
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by Manager and Processor operations.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dispatch: %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func retryable(op string, err error) error {
	return &Error{Op: op, Kind: KindRetryable, Err: err}
}

func fatal(op string, err error) error {
	return &Error{Op: op, Kind: KindFatal, Err: err}
}

// IsRetryable reports whether err (or anything it wraps) is a retryable dispatch error.
// Errors that are not *Error are treated as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == KindRetryable
	}
	return true
}
