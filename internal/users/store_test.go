package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "email", "password_hash", "full_name", "phone", "date_of_birth",
	"address", "city", "state", "zip_code", "emergency_contact_name", "emergency_contact_phone",
	"allergies", "medications", "conditions", "surgeries", "family_history",
	"blood_type", "height", "weight", "created_at", "updated_at",
}

func userRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		"u1", "jane@example.com", "digest", "Jane Doe", "+15550100", nil,
		nil, nil, nil, nil, nil, nil,
		"penicillin", nil, nil, nil, nil,
		"O+", nil, nil, now, now,
	)
}

func TestStore_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .* FROM users WHERE email = \\$1").
		WithArgs("jane@example.com").
		WillReturnRows(userRow(now))

	store := NewStore(db)
	u, err := store.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "digest", u.PasswordHash)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "+15550100", *u.Phone)
	require.NotNil(t, u.Allergies)
	assert.Equal(t, "penicillin", *u.Allergies)
	assert.Nil(t, u.DateOfBirth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM users WHERE email = \\$1").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err = NewStore(db).FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_FindByIDWrapsDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM users WHERE id = \\$1").
		WithArgs("u1").
		WillReturnError(errors.New("connection reset"))

	_, err = NewStore(db).FindByID(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStore_InsertDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err = NewStore(db).Insert(context.Background(), User{ID: "u2", Email: "jane@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestStore_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := NewStore(db).Insert(context.Background(), User{
		ID:        "u3",
		Email:     "new@example.com",
		Profile:   Profile{FullName: "New Patient"},
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "u3", u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateZeroRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = NewStore(db).Update(context.Background(), User{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdatePassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Now().UTC()
	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("newdigest", at, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewStore(db).UpdatePassword(context.Background(), "u1", "newdigest", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := NewStore(db).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.Insert(ctx, User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, User{ID: "u2", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.FindByEmail(ctx, "A@example.com")
	assert.ErrorIs(t, err, ErrNotFound, "lookup is case-sensitive")

	phone := "+15550101"
	updated, err := store.Update(ctx, User{ID: "u1", Profile: Profile{FullName: "A", Phone: &phone}})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", updated.Email)
	assert.Equal(t, "A", updated.FullName)
}

func TestProfilePatchApply(t *testing.T) {
	name := "Jane Q"
	blood := "AB-"
	p := Profile{FullName: "Jane"}
	ProfilePatch{FullName: &name, BloodType: &blood}.Apply(&p)

	assert.Equal(t, "Jane Q", p.FullName)
	require.NotNil(t, p.BloodType)
	assert.Equal(t, "AB-", *p.BloodType)
	assert.Nil(t, p.Phone)

	blood = "changed"
	assert.Equal(t, "AB-", *p.BloodType, "apply copies values")
}

func TestPublicDropsDigest(t *testing.T) {
	u := User{ID: "u1", Email: "a@example.com", PasswordHash: "secret"}
	pub := u.Public()
	assert.Equal(t, "u1", pub.ID)
	assert.Equal(t, "a@example.com", pub.Email)
}
