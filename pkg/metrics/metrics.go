// Package metrics exposes dispatch processor measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
)

const namespace = "notifyqueue"

// Tick outcome label values.
const (
	OutcomeProcessed = "processed"
	OutcomeIdle      = "idle"
	OutcomeError     = "error"
)

// Collector implements dispatch.Recorder on Prometheus collectors.
type Collector struct {
	sends        *prometheus.CounterVec
	breakerTrips prometheus.Counter
	ticks        *prometheus.CounterVec
	tickDuration prometheus.Histogram
	queueEvents  *prometheus.GaugeVec
	queuePaused  prometheus.Gauge
}

var _ dispatch.Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Send attempts by result.",
		}, []string{"result"}),
		breakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_trips_total",
			Help:      "Times the circuit breaker paused the queue.",
		}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Processor ticks by outcome.",
		}, []string{"outcome"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of a processor tick.",
			Buckets:   []float64{.01, .1, .5, 1, 5, 10, 30, 60},
		}),
		queueEvents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_events",
			Help:      "Events in the queue by status.",
		}, []string{"status"}),
		queuePaused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_paused",
			Help:      "1 when the queue is paused.",
		}),
	}

	reg.MustRegister(
		c.sends,
		c.breakerTrips,
		c.ticks,
		c.tickDuration,
		c.queueEvents,
		c.queuePaused,
	)

	return c
}

func (c *Collector) RecordSend(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	c.sends.WithLabelValues(result).Inc()
}

func (c *Collector) RecordBreakerTrip() {
	c.breakerTrips.Inc()
}

func (c *Collector) RecordTick(res dispatch.TickResult, err error, took time.Duration) {
	outcome := OutcomeProcessed
	switch {
	case err != nil:
		outcome = OutcomeError
	case res.EventID == "":
		outcome = OutcomeIdle
	}
	c.ticks.WithLabelValues(outcome).Inc()
	c.tickDuration.Observe(took.Seconds())
}

func (c *Collector) RecordQueueStatus(st dispatch.QueueStatus) {
	c.queueEvents.WithLabelValues(string(dispatch.StatusPending)).Set(float64(st.Pending))
	c.queueEvents.WithLabelValues(string(dispatch.StatusProcessing)).Set(float64(st.Processing))
	c.queueEvents.WithLabelValues(string(dispatch.StatusSent)).Set(float64(st.Sent))
	c.queueEvents.WithLabelValues(string(dispatch.StatusFailed)).Set(float64(st.Failed))

	paused := 0.0
	if st.Paused {
		paused = 1
	}
	c.queuePaused.Set(paused)
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
