// Package httpserver runs the notifyd control API.
//
// Server wraps http.Server with context-driven lifecycle: Run serves until the
// context is cancelled and then drains in-flight requests (a running tick may
// hold a request open for a whole batch) within the shutdown timeout. Signal
// handling belongs to the caller, usually via signal.NotifyContext.
//
// HealthHandler exposes liveness and readiness over the same dependencies the
// worker needs (Postgres, Redis, MongoDB):
//
//	r.Get("/health", httpserver.HealthHandler(log, 2*time.Second,
//		httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//	))
//
// Listen failures are wrapped with ErrStart and drain failures with ErrShutdown.
package httpserver
