package dispatch

import (
	"slices"
	"time"
)

// Status is the delivery state of a single notification event.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// Priority orders events in the queue. Higher rank is dispatched first.
type Priority string

const (
	PriorityBreaking  Priority = "breaking"
	PriorityImportant Priority = "important"
	PriorityNormal    Priority = "normal"
)

// Rank returns the ordering key of the priority (breaking=3, important=2, normal=1).
// Unknown values rank as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityBreaking:
		return 3
	case PriorityImportant:
		return 2
	default:
		return 1
	}
}

// Valid checks if the priority is one of the known values.
func (p Priority) Valid() bool {
	return p == PriorityBreaking || p == PriorityImportant || p == PriorityNormal
}

// ContentType is the kind of article that was published.
type ContentType string

const (
	ContentNews    ContentType = "news"
	ContentOpinion ContentType = "opinion"
)

// Valid checks if the content type is one of the known values.
func (c ContentType) Valid() bool {
	return c == ContentNews || c == ContentOpinion
}

// Event is one "article published" notification job tracked through delivery to completion.
// Events are never deleted; the store doubles as an audit log.
type Event struct {
	ID          string      `json:"id"`
	ArticleSlug string      `json:"article_slug"`
	Section     string      `json:"section"`
	Headline    string      `json:"headline"`
	Summary     string      `json:"summary"`
	ContentType ContentType `json:"content_type"`
	Priority    Priority    `json:"priority"`
	CreatedAt   time.Time   `json:"created_at"`

	Status        Status     `json:"status"`
	Attempts      int        `json:"attempts"` // ticks that failed to deliver to anyone
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`

	ProcessedCount   int      `json:"processed_count"`
	TotalSubscribers *int     `json:"total_subscribers,omitempty"`
	SentEmails       []string `json:"sent_emails"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (e Event) Clone() Event {
	c := e
	c.SentEmails = slices.Clone(e.SentEmails)
	if e.LastAttemptAt != nil {
		t := *e.LastAttemptAt
		c.LastAttemptAt = &t
	}
	if e.TotalSubscribers != nil {
		n := *e.TotalSubscribers
		c.TotalSubscribers = &n
	}
	return c
}

// Delivered reports whether the recipient is already in the idempotency ledger.
func (e Event) Delivered(recipient string) bool {
	key := recipientKey(recipient)
	for _, r := range e.SentEmails {
		if recipientKey(r) == key {
			return true
		}
	}
	return false
}

// EnqueueInput carries what the publishing pipeline knows about a freshly published article.
type EnqueueInput struct {
	ArticleSlug string      `json:"articleSlug"`
	Section     string      `json:"section"`
	Headline    string      `json:"headline"`
	Summary     string      `json:"summary"`
	ContentType ContentType `json:"contentType"`
	Priority    Priority    `json:"priority"`
}

// Patch is a partial update of an event. Nil fields are left untouched.
// SentEmails is merged as a set union, never replaced.
type Patch struct {
	Status           *Status
	Attempts         *int
	LastAttemptAt    *time.Time
	FailureReason    *string
	ProcessedDelta   int
	TotalSubscribers *int
	SentEmails       []string
}

// QueueStatus is the aggregate view of the queue.
type QueueStatus struct {
	Length     int  `json:"length"`
	Pending    int  `json:"pending"`
	Processing int  `json:"processing"`
	Sent       int  `json:"sent"`
	Failed     int  `json:"failed"`
	Paused     bool `json:"paused"`
}

// TickResult is what a single processor invocation reports back to its trigger.
type TickResult struct {
	EventID   string `json:"event_id,omitempty"`
	Processed int    `json:"processed"`
	Errors    int    `json:"errors"`
	Remaining bool   `json:"remaining"`
	Message   string `json:"message,omitempty"`
}

func ptr[T any](v T) *T { return &v }
