package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const selectColumns = `
		id, COALESCE(email, ''), COALESCE(password_hash, ''), full_name, phone, date_of_birth,
		address, city, state, zip_code, emergency_contact_name, emergency_contact_phone,
		allergies, medications, conditions, surgeries, family_history,
		blood_type, height, weight, created_at, updated_at`

// Store persists users in the hosted Postgres "users" table.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("users: sql db required")
	}
	return &Store{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.DateOfBirth,
		&u.Address, &u.City, &u.State, &u.ZipCode, &u.EmergencyContactName, &u.EmergencyContactPhone,
		&u.Allergies, &u.Medications, &u.Conditions, &u.Surgeries, &u.FamilyHistory,
		&u.BloodType, &u.Height, &u.Weight, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// FindByEmail is an exact, case-sensitive match.
func (s *Store) FindByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT` + selectColumns + `
		FROM users
		WHERE email = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("users: find by email: %w", err)
	}
	return u, err
}

func (s *Store) FindByID(ctx context.Context, id string) (User, error) {
	query := `SELECT` + selectColumns + `
		FROM users
		WHERE id = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("users: find by id: %w", err)
	}
	return u, err
}

// nullable stores blank strings as NULL. Guest profiles have no email yet,
// and many NULLs may coexist under the unique index.
func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// Insert writes a new row. The caller assigns ID and timestamps.
func (s *Store) Insert(ctx context.Context, u User) (User, error) {
	const query = `
		INSERT INTO users (
			id, email, password_hash, full_name, phone, date_of_birth,
			address, city, state, zip_code, emergency_contact_name, emergency_contact_phone,
			allergies, medications, conditions, surgeries, family_history,
			blood_type, height, weight, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, nullable(u.Email), nullable(u.PasswordHash), u.FullName, u.Phone, u.DateOfBirth,
		u.Address, u.City, u.State, u.ZipCode, u.EmergencyContactName, u.EmergencyContactPhone,
		u.Allergies, u.Medications, u.Conditions, u.Surgeries, u.FamilyHistory,
		u.BloodType, u.Height, u.Weight, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("users: insert: %w", err)
	}
	return u, nil
}

// Update rewrites the profile columns and updated_at. Email and digest are
// not touched here.
func (s *Store) Update(ctx context.Context, u User) (User, error) {
	const query = `
		UPDATE users
		SET full_name = $1, phone = $2, date_of_birth = $3,
			address = $4, city = $5, state = $6, zip_code = $7,
			emergency_contact_name = $8, emergency_contact_phone = $9,
			allergies = $10, medications = $11, conditions = $12, surgeries = $13,
			family_history = $14, blood_type = $15, height = $16, weight = $17,
			updated_at = $18
		WHERE id = $19`
	result, err := s.db.ExecContext(ctx, query,
		u.FullName, u.Phone, u.DateOfBirth,
		u.Address, u.City, u.State, u.ZipCode,
		u.EmergencyContactName, u.EmergencyContactPhone,
		u.Allergies, u.Medications, u.Conditions, u.Surgeries,
		u.FamilyHistory, u.BloodType, u.Height, u.Weight,
		u.UpdatedAt, u.ID,
	)
	if err != nil {
		return User{}, fmt.Errorf("users: update: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return User{}, fmt.Errorf("users: update: %w", err)
	}
	if affected == 0 {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	const query = `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, passwordHash, at, id)
	if err != nil {
		return fmt.Errorf("users: update password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("users: update password: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count reports how many users exist.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("users: count: %w", err)
	}
	return n, nil
}
