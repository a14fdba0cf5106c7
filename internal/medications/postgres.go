package medications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is satisfied by *pgxpool.Pool and pgxmock pools.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const medicationColumns = `
		id, user_id, name, dosage, frequency, time_of_day, instructions,
		reminders, adherence, history, created_at, updated_at`

// PostgresRepository stores medications with their dose history as JSONB.
type PostgresRepository struct {
	db  DB
	now func() time.Time
}

func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("medications: pgx pool required")
	}
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// malformedID reports an id Postgres could not cast to uuid (SQLSTATE 22P02).
func malformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func scanMedication(row pgx.Row) (Medication, error) {
	var (
		m       Medication
		history []byte
	)
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Dosage,
		&m.Frequency,
		&m.TimeOfDay,
		&m.Instructions,
		&m.Reminders,
		&m.Adherence,
		&history,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return Medication{}, err
	}
	m.History = []Dose{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &m.History); err != nil {
			return Medication{}, fmt.Errorf("medications: decode history: %w", err)
		}
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, req CreateRequest) (Medication, error) {
	now := r.now()
	m := Medication{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		Name:         req.Name,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		TimeOfDay:    req.TimeOfDay,
		Instructions: req.Instructions,
		Reminders:    req.Reminders,
		History:      []Dose{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	query := `
		INSERT INTO medications (
			id, user_id, name, dosage, frequency, time_of_day, instructions,
			reminders, adherence, history, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, '[]'::jsonb, $9, $10)
	`
	if _, err := r.db.Exec(ctx, query,
		m.ID, m.UserID, m.Name, m.Dosage, m.Frequency, m.TimeOfDay, m.Instructions,
		m.Reminders, m.CreatedAt, m.UpdatedAt,
	); err != nil {
		return Medication{}, fmt.Errorf("medications: insert: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Medication, error) {
	query := `SELECT` + medicationColumns + `
		FROM medications
		WHERE id = $1`
	m, err := scanMedication(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || malformedID(err) {
			return Medication{}, ErrNotFound
		}
		return Medication{}, fmt.Errorf("medications: select: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Medication, error) {
	query := `SELECT` + medicationColumns + `
		FROM medications
		WHERE user_id = $1
		ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		if malformedID(err) {
			return make([]Medication, 0), nil
		}
		return nil, fmt.Errorf("medications: list: %w", err)
	}
	defer rows.Close()

	out := make([]Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("medications: scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("medications: list: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (Medication, error) {
	query := `
		UPDATE medications
		SET name = COALESCE($2, name),
			dosage = COALESCE($3, dosage),
			frequency = COALESCE($4, frequency),
			time_of_day = COALESCE($5, time_of_day),
			instructions = COALESCE($6, instructions),
			reminders = COALESCE($7, reminders),
			updated_at = $8
		WHERE id = $1
		RETURNING` + medicationColumns
	m, err := scanMedication(r.db.QueryRow(ctx, query,
		id, patch.Name, patch.Dosage, patch.Frequency, patch.TimeOfDay,
		patch.Instructions, patch.Reminders, r.now(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || malformedID(err) {
			return Medication{}, ErrNotFound
		}
		return Medication{}, fmt.Errorf("medications: update: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if malformedID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("medications: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAsTaken locks the row so concurrent marks for the same medication
// cannot drop each other's history entries.
func (r *PostgresRepository) MarkAsTaken(ctx context.Context, id, date string, taken bool) (Medication, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Medication{}, fmt.Errorf("medications: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `SELECT` + medicationColumns + `
		FROM medications
		WHERE id = $1
		FOR UPDATE`
	m, err := scanMedication(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || malformedID(err) {
			return Medication{}, ErrNotFound
		}
		return Medication{}, fmt.Errorf("medications: select for update: %w", err)
	}

	m.RecordDose(date, taken)
	m.UpdatedAt = r.now()
	history, err := json.Marshal(m.History)
	if err != nil {
		return Medication{}, fmt.Errorf("medications: encode history: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE medications SET history = $2, adherence = $3, updated_at = $4 WHERE id = $1`,
		id, history, m.Adherence, m.UpdatedAt,
	); err != nil {
		return Medication{}, fmt.Errorf("medications: record dose: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Medication{}, fmt.Errorf("medications: commit: %w", err)
	}
	return m, nil
}
