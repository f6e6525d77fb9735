package services

import (
	"context"
	"fmt"

	"campusevents/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendRosterExport sends an event roster using the "roster_export" template.
func (s *emailService) SendRosterExport(ctx context.Context, data *domain.RosterExportEmailData) error {
	if data == nil {
		return fmt.Errorf("roster export data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("roster_export", data)
	if err != nil {
		return fmt.Errorf("failed to render roster_export template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send roster export email: %w", err)
	}
	return nil
}
