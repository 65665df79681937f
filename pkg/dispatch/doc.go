// Package dispatch implements the durable publish-to-notify queue: every
// published article becomes an Event that is delivered to each active
// subscriber exactly once, even across process restarts.
//
// The package is organised around three components:
//
//   - Manager: enqueues events, picks the next one by priority, applies partial updates
//   - Processor: one bounded, rate-limited batch of sends per Tick
//   - Runner: optional in-process trigger that calls Tick in a loop
//
// Persistence is behind the Store interface. FileStore keeps one JSON document
// plus a pause sentinel in a data directory; MemoryStore is for tests. Both
// rewrite the whole list on every mutation and never delete events.
//
// # Delivery guarantees
//
// Each event carries a ledger of recipients already notified (SentEmails).
// A Tick sends only to active recipients missing from the ledger and persists
// the union afterwards, so repeated or resumed ticks never notify anyone twice
// for the same event. Recipients are compared case-insensitively.
//
// Sends are sequential with a fixed delay of one minute divided by
// MaxEmailsPerMinute before each one. A run of CircuitBreakerThreshold
// consecutive failures marks the current event failed and pauses the whole
// queue until Resume is called.
//
// Ticks are serialised by a Locker. The default LocalLocker covers a single
// process; use the Redis locker from pkg/redis when several triggers can fire.
//
// # Usage
//
//	store := dispatch.NewFileStore(cfg.DataDir)
//	manager, _ := dispatch.NewManager(store, dispatch.WithLogger(log))
//	proc, _ := dispatch.NewProcessor(manager, directory, sender,
//		dispatch.WithProcessorConfig(cfg),
//		dispatch.WithProcessorLogger(log),
//	)
//
//	manager.EnqueueAsync(ctx, dispatch.EnqueueInput{
//		ArticleSlug: "election-results",
//		Headline:    "Results are in",
//		Priority:    dispatch.PriorityBreaking,
//	})
//
//	for {
//		res, err := proc.Tick(ctx)
//		if err != nil || !res.Remaining {
//			break
//		}
//	}
package dispatch
