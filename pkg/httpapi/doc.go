// Package httpapi is the notifyd control surface: a chi router that lets the
// publishing side enqueue events and lets an external scheduler (cron, a
// serverless timer) drive processor ticks.
//
// Routes under /internal/notifications require "Authorization: Bearer <token>"
// when Config.ControlToken is set. Tick, pause, resume and status share one
// token bucket; enqueue is exempt from it. Enqueue always answers 202 so a
// notification problem never fails a publish; the body says whether the event
// was queued.
package httpapi
