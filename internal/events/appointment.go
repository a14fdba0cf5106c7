package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"github.com/wolfman30/telehealth-portal/internal/appointments"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// AppointmentCreatedType is the message type attribute for AppointmentCreatedV1.
const AppointmentCreatedType = "appointment.created.v1"

// AppointmentCreatedV1 announces a durably persisted booking.
type AppointmentCreatedV1 struct {
	EventID       string    `json:"event_id"`
	AppointmentID string    `json:"appointment_id"`
	UserID        string    `json:"user_id"`
	SpecialistID  string    `json:"specialist_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// DecodeAppointmentCreated parses a queue message body.
func DecodeAppointmentCreated(body string) (AppointmentCreatedV1, error) {
	var evt AppointmentCreatedV1
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		return AppointmentCreatedV1{}, fmt.Errorf("events: decode %s: %w", AppointmentCreatedType, err)
	}
	if evt.AppointmentID == "" {
		return AppointmentCreatedV1{}, fmt.Errorf("events: %s missing appointment_id", AppointmentCreatedType)
	}
	return evt, nil
}

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends events to a single queue.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
}

// NewSQSPublisher creates a publisher for queueURL.
func NewSQSPublisher(client sqsAPI, queueURL string) *SQSPublisher {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	return &SQSPublisher{client: client, queueURL: queueURL}
}

// Publish marshals payload and tags it with eventType.
func (p *SQSPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", eventType, err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(eventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("events: failed to send SQS message: %w", err)
	}
	return nil
}

// Publisher is what QueueTrigger needs from a transport.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// QueueTrigger hands booking notifications to a queue consumer instead of
// sending email inside the request. Publish failures are logged only.
type QueueTrigger struct {
	publisher Publisher
	logger    *logging.Logger
	now       func() time.Time
}

func NewQueueTrigger(publisher Publisher, logger *logging.Logger) *QueueTrigger {
	if publisher == nil {
		panic("events: publisher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &QueueTrigger{publisher: publisher, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (t *QueueTrigger) AppointmentCreated(ctx context.Context, appt appointments.Appointment) {
	evt := AppointmentCreatedV1{
		EventID:       uuid.NewString(),
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		SpecialistID:  appt.SpecialistID,
		OccurredAt:    t.now(),
	}
	if err := t.publisher.Publish(ctx, AppointmentCreatedType, evt); err != nil {
		t.logger.Error("events: appointment.created publish failed", "error", err, "appointment_id", appt.ID)
		return
	}
	t.logger.Info("events: appointment.created queued", "appointment_id", appt.ID, "event_id", evt.EventID)
}

var _ appointments.Notifier = (*QueueTrigger)(nil)
