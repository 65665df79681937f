package dispatch

import (
	"log/slog"
)

// ProcessorOption is a functional option for configuring a Processor.
type ProcessorOption func(*Processor)

// WithProcessorConfig applies batch size, rate, breaker threshold and attempt limit from cfg.
func WithProcessorConfig(cfg Config) ProcessorOption {
	return func(p *Processor) {
		WithBatchSize(cfg.BatchSize)(p)
		WithMaxEmailsPerMinute(cfg.MaxEmailsPerMinute)(p)
		WithCircuitBreakerThreshold(cfg.CircuitBreakerThreshold)(p)
		WithMaxAttempts(cfg.MaxAttempts)(p)
	}
}

// WithBatchSize caps the number of sends per tick.
func WithBatchSize(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithMaxEmailsPerMinute sets the global send rate.
func WithMaxEmailsPerMinute(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.perMinute = n
		}
	}
}

// WithCircuitBreakerThreshold sets how many consecutive failures pause the queue.
func WithCircuitBreakerThreshold(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.threshold = n
		}
	}
}

// WithMaxAttempts fails an event after n ticks that delivered nothing. Zero disables the limit.
func WithMaxAttempts(n int) ProcessorOption {
	return func(p *Processor) {
		if n >= 0 {
			p.maxAttempts = n
		}
	}
}

// WithProcessorClock sets the time source used for rate-limit delays and timestamps.
func WithProcessorClock(c Clock) ProcessorOption {
	return func(p *Processor) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithProcessorLogger sets the logger for the processor.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// WithLocker replaces the in-process tick lock, e.g. with a Redis-backed one.
func WithLocker(l Locker) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.locker = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ProcessorOption {
	return func(p *Processor) {
		if r != nil {
			p.rec = r
		}
	}
}
