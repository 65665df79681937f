package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Article is what the notification email shows about a published article.
type Article struct {
	Label     string // e.g. "Breaking news", empty for normal priority
	Section   string
	Headline  string
	Summary   string
	URL       string
	SiteURL   string
	IsOpinion bool
}

// Notification is the "new article published" email body.
func Notification(a Article) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.write(`<!DOCTYPE html><html><body style="margin:0;padding:0;background:#f4f4f5;font-family:Helvetica,Arial,sans-serif;">`)
		ew.write(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td align="center" style="padding:24px;">`)
		ew.write(`<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:6px;padding:32px;">`)

		if a.Label != "" {
			ew.write(`<tr><td style="color:#b91c1c;font-size:12px;font-weight:bold;text-transform:uppercase;padding-bottom:8px;">`)
			ew.write(templ.EscapeString(a.Label))
			ew.write(`</td></tr>`)
		}
		if a.Section != "" {
			kind := a.Section
			if a.IsOpinion {
				kind += " · Opinion"
			}
			ew.write(`<tr><td style="color:#71717a;font-size:13px;padding-bottom:4px;">`)
			ew.write(templ.EscapeString(kind))
			ew.write(`</td></tr>`)
		}

		ew.write(`<tr><td style="font-size:22px;font-weight:bold;color:#18181b;padding-bottom:12px;">`)
		ew.write(templ.EscapeString(a.Headline))
		ew.write(`</td></tr>`)

		if a.Summary != "" {
			ew.write(`<tr><td style="font-size:15px;line-height:1.5;color:#3f3f46;padding-bottom:24px;">`)
			ew.write(templ.EscapeString(a.Summary))
			ew.write(`</td></tr>`)
		}

		ew.write(`<tr><td><a href="`)
		ew.write(templ.EscapeString(a.URL))
		ew.write(`" style="display:inline-block;background:#18181b;color:#ffffff;text-decoration:none;padding:12px 20px;border-radius:4px;font-size:14px;">Read the article</a></td></tr>`)

		ew.write(`</table><p style="color:#a1a1aa;font-size:12px;padding-top:16px;">You receive this email because you subscribed at `)
		ew.write(templ.EscapeString(a.SiteURL))
		ew.write(`.</p></td></tr></table></body></html>`)
		return ew.err
	})
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}
