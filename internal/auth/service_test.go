package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/telehealth-portal/internal/users"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

func newTestService(t *testing.T) (*Service, *users.InMemoryStore, *MemorySessionStore) {
	t.Helper()
	store := users.NewInMemoryStore()
	sessions := NewMemorySessionStore()
	svc := NewService(store, LegacyDigest{}, sessions, nil, logging.Discard())
	return svc, store, sessions
}

func strPtr(s string) *string { return &s }

func TestSignUp_CreatesUserAndSession(t *testing.T) {
	ctx := context.Background()
	svc, store, sessions := newTestService(t)

	profile, err := svc.SignUp(ctx, "sid-1", "jane@example.com", "hunter22", SignUpMetadata{FullName: "Jane Doe"})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "jane@example.com", profile.Email)
	assert.Equal(t, "Jane Doe", profile.FullName)

	stored, err := store.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	digest, _ := LegacyDigest{}.Hash("hunter22")
	assert.Equal(t, digest, stored.PasswordHash)

	identity, err := sessions.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, identity.UserID())
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	_, err := svc.SignUp(ctx, "sid-1", "jane@example.com", "hunter22", SignUpMetadata{})
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "sid-2", "jane@example.com", "other-pass", SignUpMetadata{})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSignUp_MissingCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.SignUp(context.Background(), "sid", " ", "pw", SignUpMetadata{})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := newTestService(t)

	created, err := svc.SignUp(ctx, "sid-a", "jane@example.com", "hunter22", SignUpMetadata{FullName: "Jane"})
	require.NoError(t, err)

	profile, err := svc.SignIn(ctx, "sid-b", "jane@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, created.ID, profile.ID)
	assert.Equal(t, "Jane", profile.FullName)

	identity, err := sessions.Load(ctx, "sid-b")
	require.NoError(t, err)
	assert.True(t, identity.IsAuthenticated())
}

func TestSignIn_WrongPasswordLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := newTestService(t)

	_, err := svc.SignUp(ctx, "sid-a", "jane@example.com", "hunter22", SignUpMetadata{})
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "sid-b", "jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	identity, err := sessions.Load(ctx, "sid-b")
	require.NoError(t, err)
	assert.False(t, identity.IsAuthenticated())
}

func TestSignIn_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.SignIn(context.Background(), "sid", "ghost@example.com", "pw")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSignOut_ClearsSession(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := newTestService(t)

	_, err := svc.SignUp(ctx, "sid", "jane@example.com", "hunter22", SignUpMetadata{})
	require.NoError(t, err)

	svc.SignOut(ctx, "sid")
	identity, err := sessions.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, identity.IsAuthenticated())

	// Signing out twice is harmless.
	svc.SignOut(ctx, "sid")
}

func TestUpdateProfile_GuestCreatesUser(t *testing.T) {
	ctx := context.Background()
	svc, store, sessions := newTestService(t)

	profile, err := svc.UpdateProfile(ctx, "sid", Guest(), users.ProfilePatch{
		FullName:  strPtr("Guest Person"),
		Allergies: strPtr("penicillin"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "Guest Person", profile.FullName)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	identity, err := sessions.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, identity.UserID())
}

func TestUpdateProfile_IdentifiedUpdatesRow(t *testing.T) {
	ctx := context.Background()
	svc, store, sessions := newTestService(t)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	created, err := svc.SignUp(ctx, "sid", "jane@example.com", "hunter22", SignUpMetadata{FullName: "Jane"})
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(time.Hour) }
	updated, err := svc.UpdateProfile(ctx, "sid", Identified(created.ID), users.ProfilePatch{Phone: strPtr("+15550100")})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+15550100", *updated.Phone)
	assert.Equal(t, "Jane", updated.FullName)
	assert.Equal(t, "jane@example.com", updated.Email)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	stored, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "+15550100", *stored.Phone)

	identity, _ := sessions.Load(ctx, "sid")
	p, ok := identity.Profile()
	require.True(t, ok)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "+15550100", *p.Phone)
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.UpdateProfile(context.Background(), "sid", Identified("missing"), users.ProfilePatch{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	created, err := svc.SignUp(ctx, "sid", "jane@example.com", "hunter22", SignUpMetadata{})
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, created.ID, "wrong", "newpass1")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	require.NoError(t, svc.UpdatePassword(ctx, created.ID, "hunter22", "newpass1"))

	_, err = svc.SignIn(ctx, "sid2", "jane@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = svc.SignIn(ctx, "sid2", "jane@example.com", "newpass1")
	assert.NoError(t, err)

	err = svc.UpdatePassword(ctx, "missing", "a", "b")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

type failingStore struct {
	*users.InMemoryStore
}

func (failingStore) FindByEmail(ctx context.Context, email string) (users.User, error) {
	return users.User{}, errors.New("connection reset")
}

func TestSignIn_StoreErrorIsWrapped(t *testing.T) {
	svc := NewService(failingStore{users.NewInMemoryStore()}, nil, NewMemorySessionStore(), nil, logging.Discard())
	_, err := svc.SignIn(context.Background(), "sid", "jane@example.com", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}
