package email

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
	"github.com/dmitrymomot/notifyqueue/pkg/email/templates"
	"github.com/dmitrymomot/notifyqueue/pkg/logger"
)

// NotificationTag is the Postmark tag attached to every article notification.
const NotificationTag = "article-notification"

// Notifier adapts an EmailSender to the processor's boolean send contract.
// Rendering, validation and transport errors are logged and reported as false.
type Notifier struct {
	sender  EmailSender
	siteURL string
	timeout time.Duration
	log     *slog.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithSendTimeout bounds each provider call.
func WithSendTimeout(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithNotifierLogger sets the logger for the notifier.
func WithNotifierLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}

// NewNotifier creates a Notifier. siteURL is used to build article links.
func NewNotifier(sender EmailSender, siteURL string, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		sender:  sender,
		siteURL: strings.TrimRight(siteURL, "/"),
		timeout: 10 * time.Second,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With(logger.Component("email.notifier"))
	return n
}

var _ dispatch.Sender = (*Notifier)(nil)

// Send renders and delivers the notification for ev to recipient.
func (n *Notifier) Send(ctx context.Context, recipient string, ev dispatch.Event) bool {
	if n.sender == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	body, err := templates.Render(ctx, templates.Notification(templates.Article{
		Label:     priorityLabel(ev.Priority),
		Section:   ev.Section,
		Headline:  ev.Headline,
		Summary:   ev.Summary,
		URL:       n.ArticleURL(ev),
		SiteURL:   n.siteURL,
		IsOpinion: ev.ContentType == dispatch.ContentOpinion,
	}))
	if err != nil {
		n.log.ErrorContext(ctx, "failed to render notification", logger.EventID(ev.ID), logger.Error(err))
		return false
	}

	err = n.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   strings.TrimSpace(recipient),
		Subject:  Subject(ev),
		BodyHTML: body,
		Tag:      NotificationTag,
	})
	if err != nil {
		n.log.WarnContext(ctx, "failed to send notification",
			logger.EventID(ev.ID), logger.Recipient(recipient), logger.Error(err))
		return false
	}
	return true
}

// ArticleURL builds the public link to the article behind ev.
func (n *Notifier) ArticleURL(ev dispatch.Event) string {
	parts := []string{n.siteURL}
	if ev.Section != "" {
		parts = append(parts, url.PathEscape(ev.Section))
	}
	parts = append(parts, url.PathEscape(ev.ArticleSlug))
	return strings.Join(parts, "/")
}

// Subject builds the email subject line, prefixed by priority.
func Subject(ev dispatch.Event) string {
	if label := priorityLabel(ev.Priority); label != "" {
		return label + ": " + ev.Headline
	}
	return ev.Headline
}

func priorityLabel(p dispatch.Priority) string {
	switch p {
	case dispatch.PriorityBreaking:
		return "Breaking"
	case dispatch.PriorityImportant:
		return "Important"
	default:
		return ""
	}
}
