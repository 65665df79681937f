package dispatch_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
)

// fakeClock never blocks; Sleep advances time and records the total delay.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	c.mu.Lock()
	c.slept += d
	c.mu.Unlock()
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}

// recordingSender records every send and fails for recipients listed in fail.
type recordingSender struct {
	mu    sync.Mutex
	calls map[string]int
	order []string
	fail  func(recipient string) bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{calls: map[string]int{}}
}

func (s *recordingSender) Send(_ context.Context, recipient string, _ dispatch.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, recipient)
	if s.fail != nil && s.fail(recipient) {
		return false
	}
	s.calls[recipient]++
	return true
}

func (s *recordingSender) Delivered(recipient string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[recipient]
}

func (s *recordingSender) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func staticDirectory(recipients ...string) dispatch.Directory {
	return dispatch.DirectoryFunc(func(context.Context) ([]string, error) {
		return recipients, nil
	})
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("evt-%03d", n.Add(1)) }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store   *dispatch.MemoryStore
	clock   *fakeClock
	manager *dispatch.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := dispatch.NewMemoryStore()
	clock := newFakeClock()
	m, err := dispatch.NewManager(store,
		dispatch.WithClock(clock),
		dispatch.WithLogger(discardLogger()),
		dispatch.WithIDGenerator(sequentialIDs()),
	)
	require.NoError(t, err)
	return &fixture{store: store, clock: clock, manager: m}
}

func (f *fixture) enqueue(t *testing.T, slug string, p dispatch.Priority) *dispatch.Event {
	t.Helper()
	ev, err := f.manager.Enqueue(context.Background(), dispatch.EnqueueInput{
		ArticleSlug: slug,
		Section:     "world",
		Headline:    "Headline " + slug,
		Summary:     "Summary",
		ContentType: dispatch.ContentNews,
		Priority:    p,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return ev
}

func (f *fixture) processor(t *testing.T, dir dispatch.Directory, sender dispatch.Sender, opts ...dispatch.ProcessorOption) *dispatch.Processor {
	t.Helper()
	opts = append([]dispatch.ProcessorOption{
		dispatch.WithProcessorClock(f.clock),
		dispatch.WithProcessorLogger(discardLogger()),
	}, opts...)
	p, err := dispatch.NewProcessor(f.manager, dir, sender, opts...)
	require.NoError(t, err)
	return p
}
