package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mailersend/mailersend-go"

	"campusevents/internal/domain"
)

// MailerSendConfig holds configuration for the MailerSend API.
type MailerSendConfig struct {
	APIKey string
	// HTTPClient replaces the SDK's default client when set.
	HTTPClient *http.Client
}

type mailerSendMailer struct {
	client      *mailersend.Mailersend
	fromAddress string
	fromName    string
	logger      *slog.Logger
}

func newMailerSendMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	if config.MailerSend.APIKey == "" {
		return nil, fmt.Errorf("mailersend mailer: api key is required")
	}
	if config.FromAddress == "" {
		return nil, fmt.Errorf("mailersend mailer: from address is required")
	}
	client := mailersend.NewMailersend(config.MailerSend.APIKey)
	if config.MailerSend.HTTPClient != nil {
		client.SetClient(config.MailerSend.HTTPClient)
	}
	return &mailerSendMailer{
		client:      client,
		fromAddress: config.FromAddress,
		fromName:    config.FromName,
		logger:      logger,
	}, nil
}

func (m *mailerSendMailer) Send(ctx context.Context, to, subject, html, text string) error {
	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.fromName, Email: m.fromAddress})
	message.SetRecipients([]mailersend.Recipient{{Email: to}})
	message.SetSubject(subject)
	if html != "" {
		message.SetHTML(html)
	}
	if text != "" {
		message.SetText(text)
	}

	res, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email via MailerSend: %w", err)
	}
	m.logger.Info("email sent via MailerSend", "message_id", res.Header.Get("X-Message-Id"))
	return nil
}
