package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"eventticketing/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/mailersend/mailersend-go"
)

const sendTimeout = 15 * time.Second

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailerSendConfig holds configuration for the MailerSend API.
type MailerSendConfig struct {
	APIKey string
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
	MailerSend  MailerSendConfig
}

// sesAPI is the subset of *ses.Client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// mailersendAPI is the subset of the MailerSend email service the mailer uses.
type mailersendAPI interface {
	Send(ctx context.Context, message *mailersend.Message) (*mailersend.Response, error)
}

// NewMailer creates a mailer from config. Provider "ses" uses AWS SES, "mailersend" uses the
// MailerSend API; "noop" or unknown uses a no-op mailer.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch config.Provider {
	case "ses":
		if config.FromAddress == "" {
			return nil, fmt.Errorf("ses mailer: from address is required")
		}
		if config.SES.Region == "" {
			return nil, fmt.Errorf("ses mailer: region is required")
		}
		if config.SES.InsecureSkipVerify {
			logger.Warn("[MAILER] TLS certificate verification is disabled for SES. Use only in development.")
		}
		return newSESMailer(ses.NewFromConfig(sesAWSConfig(config.SES)), config, logger), nil
	case "mailersend":
		if config.FromAddress == "" {
			return nil, fmt.Errorf("mailersend mailer: from address is required")
		}
		if config.MailerSend.APIKey == "" {
			return nil, fmt.Errorf("mailersend mailer: api key is required")
		}
		return newMailersendMailer(mailersend.NewMailersend(config.MailerSend.APIKey).Email, config, logger), nil
	case "noop", "":
		return &noopMailer{logger: logger}, nil
	default:
		logger.Warn("[MAILER] unknown email provider, using noop", "provider", config.Provider)
		return &noopMailer{logger: logger}, nil
	}
}

func sesAWSConfig(c SESConfig) aws.Config {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: c.InsecureSkipVerify,
				MinVersion:         tls.VersionTLS12,
			},
		},
	}
	return aws.Config{
		Region: c.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		),
		HTTPClient: httpClient,
	}
}

type sesMailer struct {
	client  sesAPI
	source  string
	logger  *slog.Logger
	timeout time.Duration
}

func newSESMailer(client sesAPI, config MailerConfig, logger *slog.Logger) *sesMailer {
	source := config.FromAddress
	if config.FromName != "" {
		source = fmt.Sprintf("%s <%s>", config.FromName, config.FromAddress)
	}
	return &sesMailer{client: client, source: source, logger: logger, timeout: sendTimeout}
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	input := &ses.SendEmailInput{
		Source:      aws.String(s.source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: utf8Content(subject),
			Body:    &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = utf8Content(html)
	}
	if text != "" {
		input.Message.Body.Text = utf8Content(text)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	s.logger.Info("[MAILER] email sent via SES", "to", to, "message_id", aws.ToString(result.MessageId))
	return nil
}

type mailersendMailer struct {
	client  mailersendAPI
	from    mailersend.From
	logger  *slog.Logger
	timeout time.Duration
}

func newMailersendMailer(client mailersendAPI, config MailerConfig, logger *slog.Logger) *mailersendMailer {
	return &mailersendMailer{
		client:  client,
		from:    mailersend.From{Name: config.FromName, Email: config.FromAddress},
		logger:  logger,
		timeout: sendTimeout,
	}
}

func (m *mailersendMailer) Send(ctx context.Context, to, subject, html, text string) error {
	message := &mailersend.Message{}
	message.SetFrom(m.from)
	message.SetRecipients([]mailersend.Recipient{{Email: to}})
	message.SetSubject(subject)
	if html != "" {
		message.SetHTML(html)
	}
	if text != "" {
		message.SetText(text)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	res, err := m.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email via MailerSend: %w", err)
	}
	var messageID string
	if res != nil {
		messageID = res.Header.Get("X-Message-Id")
	}
	m.logger.Info("[MAILER] email sent via MailerSend", "to", to, "message_id", messageID)
	return nil
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, to, subject, html, text string) error {
	n.logger.Info("[MAILER] email would be sent (noop)", "to", to, "subject", subject)
	return nil
}
