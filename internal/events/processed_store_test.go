package events

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestProcessedStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewProcessedStore(mock)

	mock.ExpectQuery("SELECT 1 FROM processed_events").WithArgs("notification-lambda", "evt").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(1))
	processed, err := store.AlreadyProcessed(context.Background(), "notification-lambda", "evt")
	if err != nil || !processed {
		t.Fatalf("expected existing row, got processed=%v err=%v", processed, err)
	}

	mock.ExpectQuery("SELECT 1 FROM processed_events").WithArgs("notification-lambda", "evt-miss").WillReturnError(pgx.ErrNoRows)
	processed, err = store.AlreadyProcessed(context.Background(), "notification-lambda", "evt-miss")
	if err != nil || processed {
		t.Fatalf("expected missing row, got processed=%v err=%v", processed, err)
	}

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("notification-lambda", "evt-new", pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	ok, err := store.MarkProcessed(context.Background(), "notification-lambda", "evt-new")
	if err != nil || !ok {
		t.Fatalf("expected mark processed success, got %v %v", ok, err)
	}

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("notification-lambda", "evt-new", pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("INSERT", 0))
	ok, err = store.MarkProcessed(context.Background(), "notification-lambda", "evt-new")
	if err != nil || ok {
		t.Fatalf("expected duplicate mark to report false, got %v %v", ok, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcessedStoreCheckError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT 1 FROM processed_events").WillReturnError(errors.New("timeout"))
	if _, err := NewProcessedStore(mock).AlreadyProcessed(context.Background(), "c", "e"); err == nil {
		t.Fatal("expected error")
	}
}

func TestProcessedStorePurge(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewProcessedStore(mock)
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	mock.ExpectExec("DELETE FROM processed_events").
		WithArgs("notification-lambda", now.Add(-ProcessedRetention)).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))
	removed, err := store.Purge(context.Background(), "notification-lambda", ProcessedRetention)
	if err != nil || removed != 7 {
		t.Fatalf("expected 7 purged rows, got %d %v", removed, err)
	}

	mock.ExpectExec("DELETE FROM processed_events").WillReturnError(errors.New("locked"))
	if _, err := store.Purge(context.Background(), "notification-lambda", time.Hour); err == nil {
		t.Fatal("expected purge error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
