package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RosterExportEmailData holds data for the roster export email.
type RosterExportEmailData struct {
	Email         string
	EventTitle    string
	AttendeeCount int
	Attendees     []Attendee
	CSV           string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendRosterExport(ctx context.Context, data *RosterExportEmailData) error
}
