package dispatch

// breaker counts consecutive send failures within a tick. Any success resets
// the count; reaching the threshold trips it. Tripping is one-way for the
// tick: the processor then pauses the whole queue, and only Resume re-arms it.
type breaker struct {
	threshold   int
	consecutive int
	tripped     bool
}

func newBreaker(threshold int) *breaker {
	if threshold <= 0 {
		threshold = DefaultCircuitBreakerThreshold
	}
	return &breaker{threshold: threshold}
}

func (b *breaker) success() {
	b.consecutive = 0
}

// failure records a failed send and reports whether the breaker tripped.
func (b *breaker) failure() bool {
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.tripped = true
	}
	return b.tripped
}
