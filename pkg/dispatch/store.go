package dispatch

import "context"

// UpdateFunc receives the current event list and returns the list to persist.
// It may be called more than once per Update and must not keep references to
// its argument.
type UpdateFunc func(events []Event) ([]Event, error)

// Store persists the full ordered event list and the queue-wide pause flag.
// Implementations read and rewrite the whole list; Save must be atomic so a
// crash mid-write never leaves a truncated document behind.
//
// Update is the only safe way to mutate a store shared by several processes:
// the read, fn and the write happen as one step against every other Update on
// the same backing storage. An error from fn aborts the write and is returned
// unchanged.
type Store interface {
	Load(ctx context.Context) ([]Event, error)
	Save(ctx context.Context, events []Event) error
	Update(ctx context.Context, fn UpdateFunc) error
	Paused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
}
