package httpserver

import "errors"

var (
	// ErrStart wraps listen and serve failures.
	ErrStart = errors.New("httpserver: failed to serve")
	// ErrShutdown wraps failures to drain in-flight requests before the shutdown timeout.
	ErrShutdown = errors.New("httpserver: graceful shutdown did not complete")
)
