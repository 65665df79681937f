package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
	"github.com/dmitrymomot/notifyqueue/pkg/httpserver"
	"github.com/dmitrymomot/notifyqueue/pkg/logger"
)

// Queue is the subset of *dispatch.Manager the API drives.
type Queue interface {
	Enqueue(ctx context.Context, in dispatch.EnqueueInput) (*dispatch.Event, error)
	Status(ctx context.Context) dispatch.QueueStatus
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// Ticker runs one processor tick; satisfied by *dispatch.Processor.
type Ticker interface {
	Tick(ctx context.Context) (dispatch.TickResult, error)
}

// Deps are the collaborators NewRouter wires into routes.
type Deps struct {
	Queue   Queue
	Ticker  Ticker
	Config  Config
	Logger  *slog.Logger
	Metrics http.Handler       // mounted at /metrics when set
	Checks  []httpserver.Check // readiness probes for /health
}

// NewRouter builds the control API.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(logger.Component("httpapi"))

	limit := rate.Inf
	if d.Config.TriggerRate > 0 {
		limit = rate.Limit(d.Config.TriggerRate)
	}
	burst := max(d.Config.TriggerBurst, 1)

	h := &handlers{queue: d.Queue, ticker: d.Ticker, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthHandler(log, d.Config.HealthTimeout, d.Checks...))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/internal/notifications", func(r chi.Router) {
		r.Use(bearerAuth(d.Config.ControlToken))

		// Publishing is never throttled.
		r.Post("/enqueue", h.enqueue)

		r.Group(func(r chi.Router) {
			r.Use(throttle(rate.NewLimiter(limit, burst), log))
			r.Post("/tick", h.tick)
			r.Post("/pause", h.pause)
			r.Post("/resume", h.resume)
			r.Get("/status", h.status)
		})
	})

	return r
}
