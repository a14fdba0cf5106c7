package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/wolfman30/telehealth-portal/internal/appointments"
	appconfig "github.com/wolfman30/telehealth-portal/internal/config"
	"github.com/wolfman30/telehealth-portal/internal/events"
	"github.com/wolfman30/telehealth-portal/internal/notify"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// BuildEmailSender picks the provider named by EMAIL_PROVIDER. A provider
// that is selected but not configured falls back to the stub sender.
func BuildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY empty; using stub email sender")
			return notify.NewStubEmailSender(logger), nil
		}
		return sender, nil
	case "ses":
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
			o.BaseEndpoint = endpointOverride(cfg)
		}), notify.SESConfig{
			FromEmail:        cfg.EmailFromAddress,
			FromName:         cfg.EmailFromName,
			ReplyTo:          cfg.ClinicInboxEmail,
			ConfigurationSet: cfg.SESConfigurationSet,
		}, logger), nil
	case "", "stub":
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}

// BuildProviderDirectory synthesizes doctor addresses from the configured
// domain.
func BuildProviderDirectory(cfg *appconfig.Config) notify.ProviderDirectory {
	return notify.SynthesizedDirectory{Domain: strings.TrimSpace(cfg.ProviderEmailDomain)}
}

// BuildNotifier returns the inline trigger unless a notification queue is
// configured, in which case emails are sent by the notification Lambda.
func BuildNotifier(cfg *appconfig.Config, awsCfg aws.Config, service *notify.Service, logger *logging.Logger) appointments.Notifier {
	if queueURL := strings.TrimSpace(cfg.NotificationQueueURL); queueURL != "" {
		publisher := events.NewSQSPublisher(sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			o.BaseEndpoint = endpointOverride(cfg)
		}), queueURL)
		logger.Info("appointment notifications queued", "queue_url", queueURL)
		return events.NewQueueTrigger(publisher, logger)
	}
	return notify.NewInlineTrigger(service, logger)
}

// endpointOverride points SQS and SES at LocalStack in development.
func endpointOverride(cfg *appconfig.Config) *string {
	if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
		return aws.String(endpoint)
	}
	return nil
}
