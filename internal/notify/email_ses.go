package notify

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers appointment emails through SES v2. Every message gets
// a text part; HTML-only messages are flattened with stripTags.
type SESSender struct {
	client           sesAPI
	from             string
	replyTo          []string
	configurationSet *string
	logger           *logging.Logger
}

type SESConfig struct {
	FromEmail string
	FromName  string
	// ReplyTo routes patient replies to the clinic inbox when set.
	ReplyTo string
	// ConfigurationSet enables SES event publishing (bounces, complaints).
	ConfigurationSet string
}

// NewSESSender returns nil when client is nil.
func NewSESSender(client sesAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	s := &SESSender{
		client: client,
		from:   formatAddress(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
	if cfg.ReplyTo != "" {
		s.replyTo = []string{cfg.ReplyTo}
	}
	if cfg.ConfigurationSet != "" {
		s.configurationSet = aws.String(cfg.ConfigurationSet)
	}
	return s
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}

	plain := msg.Body
	if plain == "" {
		plain = stripTags(msg.HTML)
	}
	body := &types.Body{Text: utf8Content(plain)}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}

	output, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress:     aws.String(s.from),
		ReplyToAddresses:     s.replyTo,
		ConfigurationSetName: s.configurationSet,
		Destination: &types.Destination{
			ToAddresses: []string{formatAddress(msg.ToName, msg.To)},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8Content(msg.Subject), Body: body},
		},
	})
	if err != nil {
		s.logger.Error("SES send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: SES send failed: %w", err)
	}

	s.logger.Info("email sent via SES", "to", msg.To, "subject", msg.Subject, "message_id", aws.ToString(output.MessageId))
	return nil
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

// formatAddress quotes display names such as "Smith, Jane".
func formatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

var _ EmailSender = (*SESSender)(nil)
