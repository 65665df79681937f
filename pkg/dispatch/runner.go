package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifyqueue/pkg/logger"
)

// Runner is an in-process trigger for long-lived hosts. It ticks back to back
// while there is work and sleeps for the poll interval otherwise.
type Runner struct {
	proc     *Processor
	interval time.Duration
	clock    Clock
	log      *slog.Logger
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithPollInterval sets how long the runner sleeps when the queue is idle or paused.
func WithPollInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRunnerClock sets the clock used for idle sleeps.
func WithRunnerClock(c Clock) RunnerOption {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithRunnerLogger sets the logger for the runner.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner creates a runner driving p.
func NewRunner(p *Processor, opts ...RunnerOption) *Runner {
	r := &Runner{
		proc:     p,
		interval: DefaultPollInterval,
		clock:    SystemClock{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("dispatch.runner"))
	return r
}

// Run blocks until ctx is cancelled. It always returns nil after cancellation.
func (r *Runner) Run(ctx context.Context) error {
	r.log.InfoContext(ctx, "notification runner started", slog.Duration("poll_interval", r.interval))
	defer r.log.InfoContext(context.WithoutCancel(ctx), "notification runner stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := r.proc.Tick(ctx)
		if err != nil {
			r.log.ErrorContext(ctx, "tick failed",
				slog.Bool("retryable", IsRetryable(err)), logger.Error(err))
		}
		if r.shouldContinue(ctx, res, err) {
			continue
		}
		if err := r.clock.Sleep(ctx, r.interval); err != nil {
			return nil
		}
	}
}

// shouldContinue reports whether the next tick should run without waiting.
// Ticks that touched no event (paused, locked, idle) always wait.
func (r *Runner) shouldContinue(ctx context.Context, res TickResult, err error) bool {
	if err != nil || res.EventID == "" {
		return false
	}
	if r.proc.manager.IsPaused(ctx) {
		return false
	}
	return res.Remaining || r.proc.manager.HasWork(ctx)
}
