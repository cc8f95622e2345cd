package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventticketing/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendEventUpdated tells an attendee that an event they attend has changed.
func (s *emailService) SendEventUpdated(ctx context.Context, data *domain.EventNoticeEmailData) error {
	return s.send(ctx, "event_updated", data)
}

// SendEventCancelled tells an attendee that an event they attend was deleted.
func (s *emailService) SendEventCancelled(ctx context.Context, data *domain.EventNoticeEmailData) error {
	return s.send(ctx, "event_cancelled", data)
}

func (s *emailService) send(ctx context.Context, template string, data *domain.EventNoticeEmailData) error {
	if data == nil {
		return fmt.Errorf("%s email data is nil", template)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", template, "to", data.Email)
	return nil
}
