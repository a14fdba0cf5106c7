package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apptevents "github.com/wolfman30/telehealth-portal/internal/events"
	"github.com/wolfman30/telehealth-portal/internal/notify"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

type fakeNotifier struct {
	calls []string
	errs  map[string]error
}

func (f *fakeNotifier) NotifyAppointmentCreated(ctx context.Context, id string) (notify.NotificationResult, error) {
	f.calls = append(f.calls, id)
	if err := f.errs[id]; err != nil {
		return notify.NotificationResult{}, err
	}
	return notify.NotificationResult{PatientEmailSent: true, DoctorEmailSent: true}, nil
}

func record(id, body string) events.SQSMessage {
	typ := apptevents.AppointmentCreatedType
	return events.SQSMessage{
		MessageId: id,
		Body:      body,
		MessageAttributes: map[string]events.SQSMessageAttribute{
			"type": {DataType: "String", StringValue: &typ},
		},
	}
}

func TestHandleNotifiesEachRecord(t *testing.T) {
	n := &fakeNotifier{}
	evt := events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"event_id":"e1","appointment_id":"a1"}`),
		record("m2", `{"event_id":"e2","appointment_id":"a2"}`),
	}}

	resp := handle(context.Background(), n, nil, logging.Discard(), evt)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Equal(t, []string{"a1", "a2"}, n.calls)
}

func TestHandleReportsTransientFailures(t *testing.T) {
	n := &fakeNotifier{errs: map[string]error{
		"a1": errors.New("connection reset"),
		"a2": notify.ErrAppointmentNotFound,
	}}
	evt := events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"appointment_id":"a1"}`),
		record("m2", `{"appointment_id":"a2"}`),
		record("m3", `{"appointment_id":"a3"}`),
	}}

	resp := handle(context.Background(), n, nil, logging.Discard(), evt)
	require.Len(t, resp.BatchItemFailures, 1)
	assert.Equal(t, "m1", resp.BatchItemFailures[0].ItemIdentifier)
	assert.Equal(t, []string{"a1", "a2", "a3"}, n.calls)
}

func TestHandleDropsMalformedAndForeignMessages(t *testing.T) {
	n := &fakeNotifier{}
	other := "payment.succeeded.v1"
	evt := events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `not json`),
		record("m2", `{"event_id":"e2"}`),
		{
			MessageId: "m3",
			Body:      `{"appointment_id":"a3"}`,
			MessageAttributes: map[string]events.SQSMessageAttribute{
				"type": {DataType: "String", StringValue: &other},
			},
		},
	}}

	resp := handle(context.Background(), n, nil, logging.Discard(), evt)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Empty(t, n.calls)
}

type memoryDedup map[string]bool

func (m memoryDedup) AlreadyProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	return m[consumer+"/"+eventID], nil
}

func (m memoryDedup) MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	key := consumer + "/" + eventID
	if m[key] {
		return false, nil
	}
	m[key] = true
	return true, nil
}

func TestHandleSkipsRedeliveredEvents(t *testing.T) {
	n := &fakeNotifier{}
	dedup := memoryDedup{}
	evt := events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"event_id":"e1","appointment_id":"a1"}`),
	}}

	handle(context.Background(), n, dedup, logging.Discard(), evt)
	handle(context.Background(), n, dedup, logging.Discard(), evt)
	assert.Equal(t, []string{"a1"}, n.calls)
	assert.True(t, dedup[consumerName+"/e1"])
}

func TestHandleDoesNotRecordFailedEvents(t *testing.T) {
	n := &fakeNotifier{errs: map[string]error{"a1": errors.New("connection reset")}}
	dedup := memoryDedup{}
	evt := events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"event_id":"e1","appointment_id":"a1"}`),
	}}

	resp := handle(context.Background(), n, dedup, logging.Discard(), evt)
	require.Len(t, resp.BatchItemFailures, 1)
	assert.False(t, dedup[consumerName+"/e1"])
}
