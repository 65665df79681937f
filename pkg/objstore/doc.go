// Package objstore keeps the notification queue in S3 or any S3-compatible
// service (MinIO, R2). S3Store implements dispatch.Store with the same layout
// as the file store: one JSON object holding every event and a sentinel object
// whose presence pauses the queue. Single-object PUTs are atomic, so a crash
// never leaves a truncated event list behind. Update is a compare-and-swap on
// the object's ETag (If-Match / If-None-Match), retried on conflict, so
// processes sharing a bucket never overwrite each other's events.
package objstore
