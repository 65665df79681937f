package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifyqueue/pkg/logger"
)

// Processor advances the queue one bounded batch at a time. It holds no state
// between ticks; everything it needs is re-read from the Manager on each call.
type Processor struct {
	manager *Manager
	dir     Directory
	sender  Sender

	batchSize   int
	perMinute   int
	threshold   int
	maxAttempts int

	clock  Clock
	log    *slog.Logger
	locker Locker
	rec    Recorder
}

// NewProcessor creates a processor that sends through sender to the recipients returned by dir.
func NewProcessor(m *Manager, dir Directory, sender Sender, opts ...ProcessorOption) (*Processor, error) {
	if m == nil {
		return nil, ErrManagerNil
	}
	if dir == nil {
		return nil, ErrDirectoryNil
	}
	if sender == nil {
		return nil, ErrSenderNil
	}

	p := &Processor{
		manager:   m,
		dir:       dir,
		sender:    sender,
		batchSize: DefaultBatchSize,
		perMinute: DefaultMaxEmailsPerMinute,
		threshold: DefaultCircuitBreakerThreshold,
		clock:     SystemClock{},
		log:       slog.Default(),
		locker:    &LocalLocker{},
		rec:       nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(logger.Component("dispatch.processor"))
	return p, nil
}

// SendInterval is the fixed delay before every send.
func (p *Processor) SendInterval() time.Duration {
	return time.Minute / time.Duration(p.perMinute)
}

// Tick performs one bounded unit of work on the highest-priority event and
// persists the progress before returning. The returned Remaining flag tells
// the trigger whether it should call Tick again.
func (p *Processor) Tick(ctx context.Context) (res TickResult, err error) {
	start := time.Now()
	defer func() {
		p.rec.RecordTick(res, err, time.Since(start))
		p.rec.RecordQueueStatus(p.manager.Status(context.WithoutCancel(ctx)))
	}()

	unlock, err := p.locker.Lock(ctx)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			return TickResult{Remaining: true, Message: "tick already in progress"}, nil
		}
		p.log.ErrorContext(ctx, "failed to acquire tick lock", logger.Error(err))
		return TickResult{Remaining: true, Message: "tick lock unavailable"}, retryable("tick", err)
	}
	defer unlock()

	return p.tick(ctx)
}

func (p *Processor) tick(ctx context.Context) (TickResult, error) {
	if p.manager.IsPaused(ctx) {
		return TickResult{Remaining: true, Message: "queue paused"}, nil
	}

	ev, ok := p.manager.NextPending(ctx)
	if !ok {
		return TickResult{Message: "no pending events"}, nil
	}
	res := TickResult{EventID: ev.ID}
	log := p.log.With(logger.EventID(ev.ID), logger.ArticleSlug(ev.ArticleSlug))

	if p.maxAttempts > 0 && ev.Attempts >= p.maxAttempts {
		reason := fmt.Sprintf("gave up after %d attempts", ev.Attempts)
		if _, err := p.manager.UpdateEvent(ctx, ev.ID, Patch{Status: ptr(StatusFailed), FailureReason: &reason}); err != nil {
			res.Remaining = true
			return res, err
		}
		log.WarnContext(ctx, "notification event exceeded max attempts", slog.Int("attempts", ev.Attempts))
		res.Remaining = p.manager.HasWork(ctx)
		res.Message = reason
		return res, nil
	}

	now := p.clock.Now()
	touched, err := p.manager.UpdateEvent(ctx, ev.ID, Patch{
		Status:        ptr(StatusProcessing),
		LastAttemptAt: &now,
	})
	if err != nil {
		res.Remaining = true
		res.Message = "failed to mark event processing"
		return res, err
	}
	ev = touched

	active, err := p.dir.ActiveRecipients(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to fetch active recipients", logger.Error(err))
		if _, uerr := p.manager.UpdateEvent(context.WithoutCancel(ctx), ev.ID, Patch{Attempts: ptr(ev.Attempts + 1)}); uerr != nil {
			log.ErrorContext(ctx, "failed to record failed attempt", logger.Error(uerr))
		}
		res.Remaining = true
		res.Message = "subscriber directory unavailable"
		return res, retryable("tick", errors.Join(ErrDirectory, err))
	}

	pending := undelivered(active, ev.SentEmails)
	activeCount := distinctCount(active)

	var total *int
	if ev.TotalSubscribers == nil {
		total = ptr(activeCount)
	}

	if len(pending) == 0 {
		if _, err := p.manager.UpdateEvent(ctx, ev.ID, Patch{Status: ptr(StatusSent), TotalSubscribers: total}); err != nil {
			res.Remaining = true
			return res, err
		}
		log.InfoContext(ctx, "notification event delivered", slog.Int("recipients", len(ev.SentEmails)))
		res.Remaining = p.manager.HasWork(ctx)
		res.Message = "event complete"
		return res, nil
	}

	batch := pending[:min(p.batchSize, len(pending))]
	sent, tripped := p.sendBatch(ctx, log, *ev, batch, &res)

	// Progress must land even when the trigger has gone away.
	persistCtx := context.WithoutCancel(ctx)

	patch := Patch{
		LastAttemptAt:    ptr(p.clock.Now()),
		ProcessedDelta:   res.Processed,
		TotalSubscribers: total,
		SentEmails:       sent,
	}
	// Only ticks that delivered nothing count towards the attempt limit.
	if res.Processed == 0 && res.Errors > 0 {
		patch.Attempts = ptr(ev.Attempts + 1)
	}
	ledger := union(ev.SentEmails, sent)
	complete := len(undelivered(active, ledger)) == 0

	switch {
	case tripped:
		reason := fmt.Sprintf("circuit breaker tripped after %d consecutive send failures", p.threshold)
		patch.Status = ptr(StatusFailed)
		patch.FailureReason = &reason
		p.rec.RecordBreakerTrip()
		if err := p.manager.Pause(persistCtx); err != nil {
			log.ErrorContext(ctx, "failed to pause queue after breaker trip", logger.Error(err))
		}
		log.ErrorContext(ctx, "circuit breaker tripped, queue paused",
			slog.Int("consecutive_failures", p.threshold))
		res.Message = reason
	case complete:
		patch.Status = ptr(StatusSent)
		res.Message = "event complete"
	default:
		res.Message = fmt.Sprintf("%d of %d recipients notified", len(ledger), activeCount)
	}

	if _, err := p.manager.UpdateEvent(persistCtx, ev.ID, patch); err != nil {
		log.ErrorContext(ctx, "failed to persist tick progress",
			slog.Int("processed", res.Processed), logger.Error(err))
		res.Remaining = true
		return res, err
	}

	res.Remaining = tripped || !complete
	log.InfoContext(ctx, "tick finished",
		slog.Int("processed", res.Processed),
		slog.Int("errors", res.Errors),
		slog.Bool("remaining", res.Remaining))
	return res, nil
}

// sendBatch sends sequentially with the fixed delay before each send. It stops
// early when the breaker trips or ctx is cancelled and returns the recipients
// that were notified.
func (p *Processor) sendBatch(ctx context.Context, log *slog.Logger, ev Event, batch []string, res *TickResult) ([]string, bool) {
	br := newBreaker(p.threshold)
	interval := p.SendInterval()
	sent := make([]string, 0, len(batch))

	for _, recipient := range batch {
		if err := p.clock.Sleep(ctx, interval); err != nil {
			log.WarnContext(ctx, "tick cancelled mid-batch", slog.Int("processed", res.Processed))
			break
		}

		ok := p.safeSend(ctx, log, recipient, ev)
		p.rec.RecordSend(ok)
		if ok {
			res.Processed++
			sent = append(sent, recipient)
			br.success()
			continue
		}

		res.Errors++
		log.WarnContext(ctx, "notification send failed", logger.Recipient(recipient))
		if br.failure() {
			return sent, true
		}
	}
	return sent, false
}

// safeSend turns a panicking sender into a failed send.
func (p *Processor) safeSend(ctx context.Context, log *slog.Logger, recipient string, ev Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "email sender panicked", logger.Recipient(recipient), slog.Any("panic", r))
			ok = false
		}
	}()
	return p.sender.Send(ctx, recipient, ev)
}
