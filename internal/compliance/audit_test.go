package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_LogSymptomCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewAuditService(db)
	service.now = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		userID    any
		failure   error
		eventType AuditEventType
	}{
		{name: "answered for a user", userID: "u-1", eventType: EventSymptomCheckAnswered},
		{name: "failed for a guest", userID: nil, failure: errors.New("quota"), eventType: EventSymptomCheckFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectExec("INSERT INTO compliance_audit_events").
				WithArgs(sqlmock.AnyArg(), tt.eventType, tt.userID, sqlmock.AnyArg(), time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)).
				WillReturnResult(sqlmock.NewResult(1, 1))

			userID, _ := tt.userID.(string)
			assert.NoError(t, service.LogSymptomCheck(context.Background(), userID, 3, true, tt.failure))
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_LogEventError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO compliance_audit_events").WillReturnError(errors.New("disk full"))

	err = NewAuditService(db).LogEvent(context.Background(), AuditEvent{EventType: EventDisclaimerSent})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestAuditService_NilIsNoop(t *testing.T) {
	var service *AuditService
	assert.NoError(t, service.LogDisclaimerSent(context.Background(), "u-1", DisclaimerShort))

	events, err := NewAuditService(nil).QueryEvents(context.Background(), AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAuditService_QueryEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "event_type", "user_id", "details", "created_at"}).
		AddRow("e-1", string(EventSymptomCheckAnswered), "u-1", []byte(`{"turns":2}`), created).
		AddRow("e-2", string(EventDisclaimerSent), nil, nil, created)

	mock.ExpectQuery("SELECT id, event_type, user_id, details, created_at FROM compliance_audit_events").
		WithArgs("u-1", EventSymptomCheckAnswered).
		WillReturnRows(rows)

	events, err := NewAuditService(db).QueryEvents(context.Background(), AuditFilter{
		UserID:    "u-1",
		EventType: EventSymptomCheckAnswered,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "u-1", events[0].UserID)

	var details AuditDetails
	require.NoError(t, json.Unmarshal(events[0].Details, &details))
	assert.Equal(t, 2, details.Turns)
	assert.Empty(t, events[1].UserID)
	assert.Nil(t, events[1].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}
