// Package logger builds *slog.Logger values with functional options and
// provides attribute helpers so every component logs the same keys
// (event_id, article_slug, recipient, component, error).
//
// Usage:
//
//	log := logger.New(
//		logger.WithEnvironment("production", "notifyd"),
//		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//			id := middleware.GetReqID(ctx)
//			return logger.RequestID(id), id != ""
//		}),
//	)
//	log.Info("tick finished", logger.EventID(ev.ID), logger.Error(err))
package logger
