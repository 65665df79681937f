package dispatch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyqueue/pkg/logger"
)

// Manager is the queue façade over a Store. Every mutation is a Store.Update,
// so several managers (in one process or many) may share a store.
type Manager struct {
	store Store
	clock Clock
	log   *slog.Logger
	newID func() string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source used for CreatedAt stamps.
func WithClock(c Clock) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the logger for the manager.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithIDGenerator overrides event id generation. Used by tests for stable ids.
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager creates a queue manager backed by store.
func NewManager(store Store, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	m := &Manager{
		store: store,
		clock: SystemClock{},
		log:   slog.Default(),
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("dispatch.queue"))
	return m, nil
}

// Enqueue records a new pending event. Storage failures are logged and returned
// as retryable errors; callers on the publishing path should use EnqueueAsync
// or ignore the error so publishing never fails because of notifications.
func (m *Manager) Enqueue(ctx context.Context, in EnqueueInput) (*Event, error) {
	in.ArticleSlug = strings.TrimSpace(in.ArticleSlug)
	in.Headline = strings.TrimSpace(in.Headline)
	if in.ArticleSlug == "" || in.Headline == "" {
		return nil, fatal("enqueue", fmt.Errorf("%w: article slug and headline are required", ErrInvalidInput))
	}
	if !in.Priority.Valid() {
		in.Priority = PriorityNormal
	}
	if !in.ContentType.Valid() {
		in.ContentType = ContentNews
	}

	ev := Event{
		ID:          m.newID(),
		ArticleSlug: in.ArticleSlug,
		Section:     in.Section,
		Headline:    in.Headline,
		Summary:     in.Summary,
		ContentType: in.ContentType,
		Priority:    in.Priority,
		CreatedAt:   m.clock.Now(),
		Status:      StatusPending,
		SentEmails:  []string{},
	}

	err := m.store.Update(ctx, func(events []Event) ([]Event, error) {
		if slices.ContainsFunc(events, func(e Event) bool { return e.ID == ev.ID }) {
			return nil, fatal("enqueue", fmt.Errorf("%w: duplicate event id %s", ErrInvalidInput, ev.ID))
		}
		return append(events, ev), nil
	})
	if err != nil {
		if de := asError(err); de != nil {
			return nil, de
		}
		m.log.ErrorContext(ctx, "failed to persist notification event",
			logger.EventID(ev.ID), logger.ArticleSlug(ev.ArticleSlug), logger.Error(err))
		return nil, retryable("enqueue", err)
	}

	m.log.InfoContext(ctx, "notification event enqueued",
		logger.EventID(ev.ID),
		logger.ArticleSlug(ev.ArticleSlug),
		logger.Priority(string(ev.Priority)))

	out := ev.Clone()
	return &out, nil
}

// EnqueueAsync enqueues in the background and never reports back.
// The caller's cancellation does not abort the write.
func (m *Manager) EnqueueAsync(ctx context.Context, in EnqueueInput) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.log.ErrorContext(ctx, "panic while enqueueing notification event", slog.Any("panic", r))
			}
		}()
		_, _ = m.Enqueue(ctx, in)
	}()
}

// NextPending returns the event the processor should work on next: the highest
// priority event that is pending or already processing, oldest first within a
// priority. Read failures degrade to "nothing to do".
func (m *Manager) NextPending(ctx context.Context) (*Event, bool) {
	events, err := m.store.Load(ctx)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to read queue", logger.Error(err))
		return nil, false
	}

	var best *Event
	for i := range events {
		e := &events[i]
		if e.Status != StatusPending && e.Status != StatusProcessing {
			continue
		}
		if best == nil || before(e, best) {
			best = e
		}
	}
	if best == nil {
		return nil, false
	}
	out := best.Clone()
	return &out, true
}

// before orders by priority rank desc, CreatedAt asc, then id for stability.
func before(a, b *Event) bool {
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra > rb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return cmp.Less(a.ID, b.ID)
}

// UpdateEvent merges patch into the stored event and rewrites the store.
// Status changes are validated against the event lifecycle.
func (m *Manager) UpdateEvent(ctx context.Context, id string, patch Patch) (*Event, error) {
	var updated Event
	err := m.store.Update(ctx, func(events []Event) ([]Event, error) {
		idx := slices.IndexFunc(events, func(e Event) bool { return e.ID == id })
		if idx < 0 {
			return nil, fatal("update", fmt.Errorf("%w: %s", ErrEventNotFound, id))
		}
		next, err := applyPatch(events[idx], patch)
		if err != nil {
			return nil, fatal("update", err)
		}
		events[idx] = next
		updated = next
		return events, nil
	})
	if err != nil {
		if de := asError(err); de != nil {
			if !errors.Is(de, ErrEventNotFound) {
				m.log.WarnContext(ctx, "rejected event update", logger.EventID(id), logger.Error(de))
			}
			return nil, de
		}
		m.log.ErrorContext(ctx, "failed to persist event update", logger.EventID(id), logger.Error(err))
		return nil, retryable("update", err)
	}

	out := updated.Clone()
	return &out, nil
}

// asError returns the *Error raised inside an update callback, if any.
func asError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return nil
}

func applyPatch(e Event, p Patch) (Event, error) {
	if p.Status != nil {
		next, err := Transition(e.Status, *p.Status)
		if err != nil {
			return e, err
		}
		e.Status = next
	}
	if p.Attempts != nil && *p.Attempts > e.Attempts {
		e.Attempts = *p.Attempts
	}
	if p.LastAttemptAt != nil {
		t := *p.LastAttemptAt
		e.LastAttemptAt = &t
	}
	if p.FailureReason != nil {
		e.FailureReason = *p.FailureReason
	}
	if p.ProcessedDelta > 0 {
		e.ProcessedCount += p.ProcessedDelta
	}
	if p.TotalSubscribers != nil && e.TotalSubscribers == nil {
		n := *p.TotalSubscribers
		e.TotalSubscribers = &n
	}
	if len(p.SentEmails) > 0 {
		e.SentEmails = union(e.SentEmails, p.SentEmails)
	}
	if e.SentEmails == nil {
		e.SentEmails = []string{}
	}
	return e, nil
}

// Get returns a single event by id.
func (m *Manager) Get(ctx context.Context, id string) (*Event, error) {
	events, err := m.store.Load(ctx)
	if err != nil {
		return nil, retryable("get", err)
	}
	for _, e := range events {
		if e.ID == id {
			out := e.Clone()
			return &out, nil
		}
	}
	return nil, fatal("get", fmt.Errorf("%w: %s", ErrEventNotFound, id))
}

// List returns every event in enqueue order. Read failures degrade to an empty list.
func (m *Manager) List(ctx context.Context) []Event {
	events, err := m.store.Load(ctx)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to read queue", logger.Error(err))
		return []Event{}
	}
	return events
}

// Status aggregates counts per status together with the pause flag.
func (m *Manager) Status(ctx context.Context) QueueStatus {
	st := QueueStatus{Paused: m.IsPaused(ctx)}
	for _, e := range m.List(ctx) {
		st.Length++
		switch e.Status {
		case StatusPending:
			st.Pending++
		case StatusProcessing:
			st.Processing++
		case StatusSent:
			st.Sent++
		case StatusFailed:
			st.Failed++
		}
	}
	return st
}

// HasWork reports whether any event is pending or processing.
func (m *Manager) HasWork(ctx context.Context) bool {
	_, ok := m.NextPending(ctx)
	return ok
}

// Pause sets the queue-wide pause flag; every tick becomes a no-op until Resume.
func (m *Manager) Pause(ctx context.Context) error {
	return m.setPaused(ctx, true)
}

// Resume clears the queue-wide pause flag.
func (m *Manager) Resume(ctx context.Context) error {
	return m.setPaused(ctx, false)
}

func (m *Manager) setPaused(ctx context.Context, paused bool) error {
	if err := m.store.SetPaused(ctx, paused); err != nil {
		m.log.ErrorContext(ctx, "failed to toggle queue pause flag",
			slog.Bool("paused", paused), logger.Error(err))
		return retryable("pause", err)
	}
	m.log.InfoContext(ctx, "queue pause flag changed", slog.Bool("paused", paused))
	return nil
}

// IsPaused reads the pause flag. Read failures degrade to not paused.
func (m *Manager) IsPaused(ctx context.Context) bool {
	paused, err := m.store.Paused(ctx)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to read queue pause flag", logger.Error(err))
		return false
	}
	return paused
}
