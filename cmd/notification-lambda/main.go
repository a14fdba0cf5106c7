package main

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/telehealth-portal/cmd/mainconfig"
	"github.com/wolfman30/telehealth-portal/internal/app/bootstrap"
	"github.com/wolfman30/telehealth-portal/internal/appointments"
	appconfig "github.com/wolfman30/telehealth-portal/internal/config"
	apptevents "github.com/wolfman30/telehealth-portal/internal/events"
	"github.com/wolfman30/telehealth-portal/internal/notify"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

const consumerName = "notification-lambda"

type appointmentNotifier interface {
	NotifyAppointmentCreated(ctx context.Context, appointmentID string) (notify.NotificationResult, error)
}

// dedupStore is satisfied by *events.ProcessedStore.
type dedupStore interface {
	AlreadyProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("notification lambda requires DATABASE_URL")
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("failed to connect postgres")
		os.Exit(1)
	}
	defer pool.Close()

	usersDB := bootstrap.OpenUsersDB(cfg.DatabaseURL, logger)
	if usersDB != nil {
		defer usersDB.Close()
	}

	emailSender, err := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to configure email", "error", err)
		os.Exit(1)
	}

	service := notify.NewService(
		appointments.NewPostgresRepository(pool),
		bootstrap.BuildUserStore(usersDB, logger),
		bootstrap.BuildProviderDirectory(cfg),
		emailSender,
		nil,
		logger,
	)

	processed := apptevents.NewProcessedStore(pool)
	if removed, err := processed.Purge(ctx, consumerName, apptevents.ProcessedRetention); err != nil {
		logger.Warn("failed to purge processed events", "error", err)
	} else if removed > 0 {
		logger.Info("purged processed events", "removed", removed)
	}

	lambda.Start(func(ctx context.Context, evt events.SQSEvent) (events.SQSEventResponse, error) {
		return handle(ctx, service, processed, logger, evt), nil
	})
}

// handle notifies once per record. Records for appointments that no longer
// exist, or that cannot be decoded, are dropped; anything else is reported
// back as a batch item failure so the queue redelivers it. Events already
// recorded in dedup are skipped; dedup may be nil.
func handle(ctx context.Context, notifier appointmentNotifier, dedup dedupStore, logger *logging.Logger, evt events.SQSEvent) events.SQSEventResponse {
	var resp events.SQSEventResponse
	for _, record := range evt.Records {
		if t, ok := record.MessageAttributes["type"]; ok && t.StringValue != nil && *t.StringValue != apptevents.AppointmentCreatedType {
			logger.Warn("skipping unexpected message type", "type", *t.StringValue, "message_id", record.MessageId)
			continue
		}

		payload, err := apptevents.DecodeAppointmentCreated(record.Body)
		if err != nil {
			logger.Error("dropping malformed message", "error", err, "message_id", record.MessageId)
			continue
		}

		if dedup != nil && payload.EventID != "" {
			seen, err := dedup.AlreadyProcessed(ctx, consumerName, payload.EventID)
			if err != nil {
				logger.Warn("dedup check failed; notifying anyway", "error", err, "event_id", payload.EventID)
			} else if seen {
				logger.Info("skipping duplicate delivery", "event_id", payload.EventID, "appointment_id", payload.AppointmentID)
				continue
			}
		}

		result, err := notifier.NotifyAppointmentCreated(ctx, payload.AppointmentID)
		switch {
		case errors.Is(err, notify.ErrAppointmentNotFound):
			logger.Warn("appointment gone before notification", "appointment_id", payload.AppointmentID)
		case err != nil:
			logger.Error("notification failed", "error", err, "appointment_id", payload.AppointmentID)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		default:
			if dedup != nil && payload.EventID != "" {
				if _, err := dedup.MarkProcessed(ctx, consumerName, payload.EventID); err != nil {
					logger.Warn("failed to record processed event", "error", err, "event_id", payload.EventID)
				}
			}
			logger.Info("appointment notifications sent",
				"appointment_id", payload.AppointmentID,
				"patient_email_sent", result.PatientEmailSent,
				"doctor_email_sent", result.DoctorEmailSent,
			)
		}
	}
	return resp
}
