// Package compliance keeps the symptom checker's audit trail and the
// disclaimer attached to its replies.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEventType names an audited action.
type AuditEventType string

const (
	// EventSymptomCheckAnswered is logged when the model answered a check.
	EventSymptomCheckAnswered AuditEventType = "symptoms.check_answered"
	// EventSymptomCheckFailed is logged when the model could not be reached.
	EventSymptomCheckFailed AuditEventType = "symptoms.check_failed"
	// EventDisclaimerSent is logged when a disclaimer is appended to a reply.
	EventDisclaimerSent AuditEventType = "compliance.disclaimer_sent"
)

// AuditEvent is an immutable audit record. It never carries message text.
type AuditEvent struct {
	ID        string          `json:"id"`
	EventType AuditEventType  `json:"event_type"`
	UserID    string          `json:"user_id,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditDetails holds event-specific fields.
type AuditDetails struct {
	Turns         int    `json:"turns,omitempty"`
	HasAttachment bool   `json:"has_attachment,omitempty"`
	Failure       string `json:"failure,omitempty"`

	DisclaimerLevel string `json:"disclaimer_level,omitempty"`
}

// AuditService writes audit events to Postgres. A nil service or one
// without a database drops events.
type AuditService struct {
	db  *sql.DB
	now func() time.Time
}

func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db, now: time.Now}
}

// LogEvent records one event. Guests are stored with a NULL user id.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if s == nil || s.db == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compliance_audit_events (id, event_type, user_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.ID, event.EventType, nullString(event.UserID), []byte(event.Details), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// LogSymptomCheck records that a check was answered, or why it was not.
func (s *AuditService) LogSymptomCheck(ctx context.Context, userID string, turns int, hasAttachment bool, failure error) error {
	details := AuditDetails{Turns: turns, HasAttachment: hasAttachment}
	eventType := EventSymptomCheckAnswered
	if failure != nil {
		eventType = EventSymptomCheckFailed
		details.Failure = failure.Error()
	}
	detailsJSON, _ := json.Marshal(details)
	return s.LogEvent(ctx, AuditEvent{EventType: eventType, UserID: userID, Details: detailsJSON})
}

// LogDisclaimerSent records that a reply carried a disclaimer.
func (s *AuditService) LogDisclaimerSent(ctx context.Context, userID string, level DisclaimerLevel) error {
	detailsJSON, _ := json.Marshal(AuditDetails{DisclaimerLevel: string(level)})
	return s.LogEvent(ctx, AuditEvent{EventType: EventDisclaimerSent, UserID: userID, Details: detailsJSON})
}

// AuditFilter narrows QueryEvents.
type AuditFilter struct {
	UserID    string
	EventType AuditEventType
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// QueryEvents returns matching events, newest first.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	if s == nil || s.db == nil {
		return []AuditEvent{}, nil
	}
	query := `SELECT id, event_type, user_id, details, created_at FROM compliance_audit_events WHERE 1=1`
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	if filter.UserID != "" {
		add("user_id =", filter.UserID)
	}
	if filter.EventType != "" {
		add("event_type =", filter.EventType)
	}
	if !filter.StartTime.IsZero() {
		add("created_at >=", filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		add("created_at <=", filter.EndTime)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := []AuditEvent{}
	for rows.Next() {
		var e AuditEvent
		var userID sql.NullString
		var details []byte
		if err := rows.Scan(&e.ID, &e.EventType, &userID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.UserID = userID.String
		if len(details) > 0 {
			e.Details = json.RawMessage(details)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
