package dispatch

import (
	"context"
	"sync"
	"time"
)

// Sender delivers one notification to one recipient.
// It reports success as a boolean and must not panic; every failure cause
// collapses into false.
type Sender interface {
	Send(ctx context.Context, recipient string, ev Event) bool
}

// SenderFunc adapts a plain function to Sender.
type SenderFunc func(ctx context.Context, recipient string, ev Event) bool

func (f SenderFunc) Send(ctx context.Context, recipient string, ev Event) bool {
	return f(ctx, recipient, ev)
}

// Directory returns the current list of active recipients.
// No consistency is assumed between calls.
type Directory interface {
	ActiveRecipients(ctx context.Context) ([]string, error)
}

// DirectoryFunc adapts a plain function to Directory.
type DirectoryFunc func(ctx context.Context) ([]string, error)

func (f DirectoryFunc) ActiveRecipients(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// Locker serialises ticks. Lock returns ErrLocked when another tick holds the lock.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// LocalLocker serialises ticks inside a single process.
type LocalLocker struct {
	mu sync.Mutex
}

func (l *LocalLocker) Lock(ctx context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrLocked
	}
	return l.mu.Unlock, nil
}

// Recorder receives processor measurements. See pkg/metrics for the Prometheus implementation.
type Recorder interface {
	RecordSend(ok bool)
	RecordBreakerTrip()
	RecordTick(res TickResult, err error, took time.Duration)
	RecordQueueStatus(st QueueStatus)
}

type nopRecorder struct{}

func (nopRecorder) RecordSend(bool)                             {}
func (nopRecorder) RecordBreakerTrip()                          {}
func (nopRecorder) RecordTick(TickResult, error, time.Duration) {}
func (nopRecorder) RecordQueueStatus(QueueStatus)               {}
