package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
// Send must return when ctx is done.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventNoticeEmailData holds data for the event updated and event cancelled emails.
type EventNoticeEmailData struct {
	Email      string
	Name       string
	EventTitle string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendEventUpdated(ctx context.Context, data *EventNoticeEmailData) error
	SendEventCancelled(ctx context.Context, data *EventNoticeEmailData) error
}
