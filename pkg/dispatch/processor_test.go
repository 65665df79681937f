package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
)

func TestNewProcessor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dir := staticDirectory()
	sender := newRecordingSender()

	_, err := dispatch.NewProcessor(nil, dir, sender)
	require.ErrorIs(t, err, dispatch.ErrManagerNil)
	_, err = dispatch.NewProcessor(f.manager, nil, sender)
	require.ErrorIs(t, err, dispatch.ErrDirectoryNil)
	_, err = dispatch.NewProcessor(f.manager, dir, nil)
	require.ErrorIs(t, err, dispatch.ErrSenderNil)

	p, err := dispatch.NewProcessor(f.manager, dir, sender, dispatch.WithProcessorConfig(dispatch.Config{MaxEmailsPerMinute: 120}))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, p.SendInterval())
}

func TestTickEmptyQueue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.processor(t, staticDirectory("a@x.io"), newRecordingSender())

	res, err := p.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 0, res.Errors)
	assert.False(t, res.Remaining)
}

func TestTickBatches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)
	sender := newRecordingSender()
	p := f.processor(t, staticDirectory("a@x.io", "b@x.io", "c@x.io"), sender, dispatch.WithBatchSize(2))

	res, err := p.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, res.EventID)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 0, res.Errors)
	assert.True(t, res.Remaining)

	mid, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusProcessing, mid.Status)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, mid.SentEmails)
	require.NotNil(t, mid.TotalSubscribers)
	assert.Equal(t, 3, *mid.TotalSubscribers)
	assert.Zero(t, mid.Attempts, "a tick that delivered is not a failed attempt")

	res, err = p.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.False(t, res.Remaining)

	done, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusSent, done.Status)
	assert.Equal(t, 3, done.ProcessedCount)
	assert.ElementsMatch(t, []string{"a@x.io", "b@x.io", "c@x.io"}, done.SentEmails)
	assert.NotNil(t, done.LastAttemptAt)
}

func TestTickIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)
	recipients := []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io"}
	sender := newRecordingSender()
	p := f.processor(t, staticDirectory(recipients...), sender, dispatch.WithBatchSize(2))

	for range 10 {
		_, err := p.Tick(ctx)
		require.NoError(t, err)
	}

	for _, r := range recipients {
		assert.Equal(t, 1, sender.Delivered(r), r)
	}
	got, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, got.SentEmails, len(recipients))
	assert.Equal(t, dispatch.StatusSent, got.Status)
}

func TestTickTreatsCaseVariantsAsOneRecipient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)
	_, err := f.manager.UpdateEvent(ctx, ev.ID, dispatch.Patch{SentEmails: []string{"jane@example.com"}})
	require.NoError(t, err)

	sender := newRecordingSender()
	p := f.processor(t, staticDirectory("Jane@Example.com ", "bob@example.com", "bob@example.com"), sender)

	res, err := p.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, sender.Attempts())
	assert.False(t, res.Remaining)
}

func TestTickCrashResumeConverges(t *testing.T) {
	t.Parallel()

	recipients := []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io"}

	// Uninterrupted run.
	ref := newFixture(t)
	refEv := ref.enqueue(t, "a", dispatch.PriorityNormal)
	refProc := ref.processor(t, staticDirectory(recipients...), newRecordingSender(), dispatch.WithBatchSize(2))
	for range 5 {
		_, err := refProc.Tick(context.Background())
		require.NoError(t, err)
	}
	want, err := ref.manager.Get(context.Background(), refEv.ID)
	require.NoError(t, err)

	// Partial progress persisted by a process that died mid-event.
	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)
	_, err = f.manager.UpdateEvent(ctx, ev.ID, dispatch.Patch{
		Status:         ptr(dispatch.StatusProcessing),
		SentEmails:     []string{"b@x.io", "d@x.io"},
		ProcessedDelta: 2,
	})
	require.NoError(t, err)

	sender := newRecordingSender()
	p := f.processor(t, staticDirectory(recipients...), sender, dispatch.WithBatchSize(2))
	for range 5 {
		_, err := p.Tick(ctx)
		require.NoError(t, err)
	}

	got, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, want.SentEmails, got.SentEmails)
	assert.Equal(t, dispatch.StatusSent, got.Status)
	assert.Equal(t, 5, got.ProcessedCount)
	assert.Zero(t, sender.Delivered("b@x.io"))
	assert.Zero(t, sender.Delivered("d@x.io"))
}

func TestTickCircuitBreaker(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)
	other := f.enqueue(t, "b", dispatch.PriorityNormal)

	recipients := make([]string, 0, 10)
	for _, c := range "abcdefghij" {
		recipients = append(recipients, string(c)+"@x.io")
	}
	sender := newRecordingSender()
	sender.fail = func(r string) bool { return r != "a@x.io" }
	p := f.processor(t, staticDirectory(recipients...), sender,
		dispatch.WithBatchSize(10),
		dispatch.WithCircuitBreakerThreshold(3),
	)

	res, err := p.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 3, res.Errors)
	assert.True(t, res.Remaining)
	assert.Equal(t, 4, sender.Attempts(), "batch stops at the threshold")

	assert.True(t, f.manager.IsPaused(ctx))
	failed, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusFailed, failed.Status)
	assert.Contains(t, failed.FailureReason, "circuit breaker")
	assert.Equal(t, []string{"a@x.io"}, failed.SentEmails)

	for range 3 {
		res, err = p.Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Processed)
		assert.True(t, res.Remaining)
	}
	assert.Equal(t, 4, sender.Attempts())

	untouched, err := f.manager.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusPending, untouched.Status)

	require.NoError(t, f.manager.Resume(ctx))
	sender.mu.Lock()
	sender.fail = nil
	sender.mu.Unlock()

	res, err = p.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, other.ID, res.EventID)
	assert.Equal(t, 10, res.Processed)
}

func TestTickBreakerResetsOnSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)

	// fail, fail, ok, fail, fail, ok: never three in a row
	failing := map[string]bool{"a@x.io": true, "b@x.io": true, "d@x.io": true, "e@x.io": true}
	sender := newRecordingSender()
	sender.fail = func(r string) bool { return failing[r] }
	p := f.processor(t,
		staticDirectory("a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io", "f@x.io"),
		sender,
		dispatch.WithCircuitBreakerThreshold(3),
	)

	res, err := p.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 4, res.Errors)
	assert.True(t, res.Remaining)
	assert.False(t, f.manager.IsPaused(ctx))

	got, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusProcessing, got.Status)
}

func TestTickRateLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enqueue(t, "a", dispatch.PriorityNormal)
	recipients := []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"}
	p := f.processor(t, staticDirectory(recipients...), newRecordingSender(),
		dispatch.WithMaxEmailsPerMinute(30),
	)

	before := f.clock.Slept()
	res, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(recipients), res.Processed)

	delay := 2 * time.Second
	assert.GreaterOrEqual(t, f.clock.Slept()-before, time.Duration(len(recipients)-1)*delay)
}

func TestTickWhilePaused(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)
	sender := newRecordingSender()
	p := f.processor(t, staticDirectory("a@x.io"), sender)

	require.NoError(t, f.manager.Pause(ctx))
	saves := f.store.Saves()

	res, err := p.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.TickResult{Remaining: true, Message: res.Message}, res)
	assert.Equal(t, saves, f.store.Saves())

	got, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusPending, got.Status)
	assert.Zero(t, sender.Attempts())
}

func TestTickNoRecipients(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	first := f.enqueue(t, "a", dispatch.PriorityBreaking)
	f.enqueue(t, "b", dispatch.PriorityNormal)
	p := f.processor(t, staticDirectory(), newRecordingSender())

	res, err := p.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, res.EventID)
	assert.True(t, res.Remaining, "another event is still pending")

	got, err := f.manager.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusSent, got.Status)
	require.NotNil(t, got.TotalSubscribers)
	assert.Zero(t, *got.TotalSubscribers)

	_, err = p.Tick(ctx)
	require.NoError(t, err)
	res, err = p.Tick(ctx)
	require.NoError(t, err)
	assert.False(t, res.Remaining)
}

func TestTickUnsubscribeAfterSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)

	var mu sync.Mutex
	active := []string{"a@x.io", "b@x.io", "c@x.io"}
	dir := dispatch.DirectoryFunc(func(context.Context) ([]string, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), active...), nil
	})
	p := f.processor(t, dir, newRecordingSender(), dispatch.WithBatchSize(1))

	_, err := p.Tick(ctx)
	require.NoError(t, err)

	mu.Lock()
	active = []string{"a@x.io", "c@x.io"}
	mu.Unlock()

	_, err = p.Tick(ctx)
	require.NoError(t, err)

	got, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusSent, got.Status)
	assert.Equal(t, 3, *got.TotalSubscribers, "snapshot is not rewritten")
}

func TestTickDirectoryFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)
	dir := dispatch.DirectoryFunc(func(context.Context) ([]string, error) {
		return nil, errors.New("db down")
	})
	p := f.processor(t, dir, newRecordingSender())

	res, err := p.Tick(ctx)
	require.ErrorIs(t, err, dispatch.ErrDirectory)
	assert.True(t, dispatch.IsRetryable(err))
	assert.True(t, res.Remaining)

	got, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SentEmails)
	assert.Nil(t, got.TotalSubscribers)
	assert.Equal(t, 1, got.Attempts)
}

func TestTickPanickingSenderCountsAsFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enqueue(t, "a", dispatch.PriorityNormal)
	sender := dispatch.SenderFunc(func(context.Context, string, dispatch.Event) bool {
		panic("transport exploded")
	})
	p := f.processor(t, staticDirectory("a@x.io"), sender)

	var res dispatch.TickResult
	var err error
	require.NotPanics(t, func() { res, err = p.Tick(context.Background()) })
	require.NoError(t, err)
	assert.Equal(t, 1, res.Errors)
	assert.True(t, res.Remaining)
}

func TestTickMaxAttempts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)
	sender := newRecordingSender()
	sender.fail = func(string) bool { return true }
	p := f.processor(t, staticDirectory("a@x.io"), sender, dispatch.WithMaxAttempts(2))

	for range 2 {
		_, err := p.Tick(ctx)
		require.NoError(t, err)
	}
	res, err := p.Tick(ctx)
	require.NoError(t, err)
	assert.False(t, res.Remaining)

	got, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusFailed, got.Status)
	assert.Equal(t, 2, got.Attempts)
}

func TestTickMaxAttemptsIgnoresProgress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)

	recipients := make([]string, 0, 10)
	for _, c := range "abcdefghij" {
		recipients = append(recipients, string(c)+"@x.io")
	}
	p := f.processor(t, staticDirectory(recipients...), newRecordingSender(),
		dispatch.WithBatchSize(2),
		dispatch.WithMaxAttempts(3),
	)

	for range 5 {
		_, err := p.Tick(ctx)
		require.NoError(t, err)
	}

	got, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusSent, got.Status)
	assert.Len(t, got.SentEmails, len(recipients))
	assert.Zero(t, got.Attempts)
	assert.Empty(t, got.FailureReason)
}

func TestTickPartialBatchIsNotAFailedAttempt(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ev := f.enqueue(t, "a", dispatch.PriorityNormal)
	sender := newRecordingSender()
	sender.fail = func(r string) bool { return r == "b@x.io" }
	p := f.processor(t, staticDirectory("a@x.io", "b@x.io"), sender, dispatch.WithMaxAttempts(1))

	res, err := p.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Errors)

	got, err := f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Attempts)

	// b keeps failing: the next tick delivers nothing and counts.
	_, err = p.Tick(ctx)
	require.NoError(t, err)
	got, err = f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, dispatch.StatusProcessing, got.Status)

	_, err = p.Tick(ctx)
	require.NoError(t, err)
	got, err = f.manager.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusFailed, got.Status)
}

type blockingLocker struct{}

func (blockingLocker) Lock(context.Context) (func(), error) { return nil, dispatch.ErrLocked }

func TestTickSkipsWhenLocked(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enqueue(t, "a", dispatch.PriorityNormal)
	sender := newRecordingSender()
	p := f.processor(t, staticDirectory("a@x.io"), sender, dispatch.WithLocker(blockingLocker{}))

	res, err := p.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Remaining)
	assert.Empty(t, res.EventID)
	assert.Zero(t, sender.Attempts())
}

func TestLocalLocker(t *testing.T) {
	t.Parallel()

	var l dispatch.LocalLocker
	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)

	_, err = l.Lock(context.Background())
	require.ErrorIs(t, err, dispatch.ErrLocked)

	unlock()
	unlock2, err := l.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}
