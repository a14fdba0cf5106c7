package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the part of pgx shared by pools and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is satisfied by *pgxpool.Pool and pgxmock pools.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

const appointmentColumns = `
		id, user_id, specialist_id, specialist_type, specialist_name,
		appointment_date::text, appointment_time, reason, notes, status,
		created_at, updated_at`

// rlsRole is the database role whose row-level policies apply to patients.
const rlsRole = "authenticated"

// PostgresRepository stores appointments in the hosted Postgres table.
//
// The privileged variant talks to the pool directly with service-role
// credentials. The scoped variant wraps every call in a transaction that
// drops to the row-level-secured role and sets the caller's subject claim,
// so the table's policies decide which rows are visible.
type PostgresRepository struct {
	db      DB
	subject string
	scoped  bool
	now     func() time.Time
}

// NewPostgresRepository returns the privileged repository.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// NewScopedRepository returns a repository bound by row-level security to
// subject. An empty subject sees only what anonymous policies allow.
func NewScopedRepository(db DB, subject string) *PostgresRepository {
	r := NewPostgresRepository(db)
	r.subject = subject
	r.scoped = true
	return r
}

// Scoped reports whether row-level security applies.
func (r *PostgresRepository) Scoped() bool {
	return r.scoped
}

func (r *PostgresRepository) run(ctx context.Context, fn func(q querier) error) error {
	if !r.scoped {
		return fn(r.db)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+rlsRole); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT set_config('request.jwt.claim.sub', $1, true)`, r.subject); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	err := r.run(ctx, func(q querier) error {
		rows, err := q.Query(ctx, `SELECT id FROM appointments LIMIT 1`)
		if err != nil {
			return err
		}
		rows.Close()
		return rows.Err()
	})
	if err != nil {
		return persistenceErr("ping", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, req CreateRequest) (Appointment, error) {
	now := r.now()
	a := Appointment{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		SpecialistID:    req.SpecialistID,
		SpecialistType:  req.SpecialistType,
		SpecialistName:  req.SpecialistName,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
		Notes:           copyString(req.Notes),
		Status:          req.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}

	query := `
		INSERT INTO appointments (
			id, user_id, specialist_id, specialist_type, specialist_name,
			appointment_date, appointment_time, reason, notes, status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	err := r.run(ctx, func(q querier) error {
		_, err := q.Exec(ctx, query,
			a.ID, a.UserID, a.SpecialistID, a.SpecialistType, a.SpecialistName,
			a.AppointmentDate, a.AppointmentTime, a.Reason, a.Notes, string(a.Status),
			a.CreatedAt, a.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return Appointment{}, persistenceErr("create", err)
	}
	return a, nil
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		a      Appointment
		status string
	)
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.SpecialistID,
		&a.SpecialistType,
		&a.SpecialistName,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.Reason,
		&a.Notes,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return Appointment{}, err
	}
	a.Status = Status(status)
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Appointment, error) {
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE id = $1`

	var a Appointment
	err := r.run(ctx, func(q querier) error {
		var err error
		a, err = scanAppointment(q.QueryRow(ctx, query, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || malformedID(err) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, persistenceErr("get", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE user_id = $1
		ORDER BY appointment_date ASC, appointment_time ASC`

	out := make([]Appointment, 0)
	err := r.run(ctx, func(q querier) error {
		rows, err := q.Query(ctx, query, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			a, err := scanAppointment(rows)
			if err != nil {
				return fmt.Errorf("scan appointment: %w", err)
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	if err != nil {
		if malformedID(err) {
			return make([]Appointment, 0), nil
		}
		return nil, persistenceErr("list", err)
	}
	return out, nil
}

// Update merges patch server-side with COALESCE so absent fields keep their
// stored values, and stamps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (Appointment, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query := `
		UPDATE appointments
		SET specialist_id = COALESCE($2, specialist_id),
			specialist_type = COALESCE($3, specialist_type),
			specialist_name = COALESCE($4, specialist_name),
			appointment_date = COALESCE($5, appointment_date),
			appointment_time = COALESCE($6, appointment_time),
			reason = COALESCE($7, reason),
			notes = COALESCE($8, notes),
			status = COALESCE($9, status),
			updated_at = $10
		WHERE id = $1
		RETURNING` + appointmentColumns

	var a Appointment
	err := r.run(ctx, func(q querier) error {
		var err error
		a, err = scanAppointment(q.QueryRow(ctx, query,
			id,
			patch.SpecialistID,
			patch.SpecialistType,
			patch.SpecialistName,
			patch.AppointmentDate,
			patch.AppointmentTime,
			patch.Reason,
			patch.Notes,
			status,
			r.now(),
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || malformedID(err) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, persistenceErr("update", err)
	}
	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.run(ctx, func(q querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		if malformedID(err) {
			return ErrNotFound
		}
		return persistenceErr("delete", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
