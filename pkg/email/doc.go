// Package email delivers article notifications.
//
// EmailSender is the provider abstraction with two implementations:
// a Postmark client for production and DevSender, which writes each message
// to disk for local runs. NewFromConfig picks one based on whether a Postmark
// token is configured.
//
// Notifier sits between the dispatch processor and an EmailSender. It renders
// the notification body with the templ component in the templates subpackage,
// bounds each provider call with a timeout and collapses every failure into
// false, as dispatch.Sender requires:
//
//	sender, err := email.NewFromConfig(cfg)
//	if err != nil {
//		return err
//	}
//	notifier := email.NewNotifier(sender, cfg.SiteURL, email.WithSendTimeout(cfg.SendTimeout))
//	proc, err := dispatch.NewProcessor(manager, directory, notifier)
//
// Errors are sentinel values (ErrInvalidConfig, ErrInvalidParams,
// ErrFailedToSendEmail) and can be checked with errors.Is.
package email
