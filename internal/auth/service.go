package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/telehealth-portal/internal/observability/metrics"
	"github.com/wolfman30/telehealth-portal/internal/users"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// UserStore is the credential store the service reads and writes.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
	FindByID(ctx context.Context, id string) (users.User, error)
	Insert(ctx context.Context, u users.User) (users.User, error)
	Update(ctx context.Context, u users.User) (users.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
}

// SignUpMetadata carries the profile fields collected on the sign-up form.
type SignUpMetadata struct {
	FullName string
}

// Service implements sign-up, sign-in, sign-out and profile maintenance.
type Service struct {
	users    UserStore
	hasher   Hasher
	sessions SessionStore
	metrics  *metrics.AuthMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewService wires the auth service. A nil hasher means LegacyDigest.
func NewService(store UserStore, hasher Hasher, sessions SessionStore, m *metrics.AuthMetrics, logger *logging.Logger) *Service {
	if store == nil {
		panic("auth: user store required")
	}
	if sessions == nil {
		panic("auth: session store required")
	}
	if hasher == nil {
		hasher = LegacyDigest{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		users:    store,
		hasher:   hasher,
		sessions: sessions,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SignUp creates a user and signs the session in as that user.
func (s *Service) SignUp(ctx context.Context, sessionID, email, password string, meta SignUpMetadata) (users.PublicProfile, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return users.PublicProfile{}, ErrMissingCredentials
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.Observe("sign_up", "duplicate_email")
		return users.PublicProfile{}, ErrDuplicateEmail
	case !errors.Is(err, users.ErrNotFound):
		s.metrics.Observe("sign_up", "error")
		return users.PublicProfile{}, fmt.Errorf("auth: sign up lookup: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return users.PublicProfile{}, err
	}
	now := s.now()
	created, err := s.users.Insert(ctx, users.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: digest,
		Profile:      users.Profile{FullName: meta.FullName},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// A concurrent sign-up can win between lookup and insert.
		if errors.Is(err, users.ErrDuplicateEmail) {
			s.metrics.Observe("sign_up", "duplicate_email")
			return users.PublicProfile{}, ErrDuplicateEmail
		}
		s.metrics.Observe("sign_up", "error")
		return users.PublicProfile{}, fmt.Errorf("auth: sign up insert: %w", err)
	}

	profile := created.Public()
	if err := s.sessions.Save(ctx, sessionID, profile); err != nil {
		return users.PublicProfile{}, err
	}
	s.metrics.Observe("sign_up", "ok")
	s.logger.Info("user signed up", "user_id", profile.ID)
	return profile, nil
}

// SignIn verifies the password and stores the full profile in the session.
// On failure the session is left untouched.
func (s *Service) SignIn(ctx context.Context, sessionID, email, password string) (users.PublicProfile, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return users.PublicProfile{}, ErrMissingCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.metrics.Observe("sign_in", "user_not_found")
			return users.PublicProfile{}, ErrUserNotFound
		}
		s.metrics.Observe("sign_in", "error")
		return users.PublicProfile{}, fmt.Errorf("auth: sign in lookup: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		s.metrics.Observe("sign_in", "invalid_credential")
		return users.PublicProfile{}, ErrInvalidCredential
	}

	profile := u.Public()
	if err := s.sessions.Save(ctx, sessionID, profile); err != nil {
		return users.PublicProfile{}, err
	}
	s.metrics.Observe("sign_in", "ok")
	return profile, nil
}

// SignOut clears the session. Store errors are logged, never returned.
func (s *Service) SignOut(ctx context.Context, sessionID string) {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("auth: sign out could not clear session", "error", err)
	}
	s.metrics.Observe("sign_out", "ok")
}

// CurrentIdentity returns whoever the session holds, possibly nobody.
func (s *Service) CurrentIdentity(ctx context.Context, sessionID string) (Identity, error) {
	return s.sessions.Load(ctx, sessionID)
}

// UpdateProfile applies patch to the subject's profile. A guest subject gets
// a newly created user row, which then becomes the session identity.
func (s *Service) UpdateProfile(ctx context.Context, sessionID string, subject Subject, patch users.ProfilePatch) (users.PublicProfile, error) {
	now := s.now()

	id, identified := subject.ID()
	if !identified {
		u := users.User{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
		patch.Apply(&u.Profile)
		created, err := s.users.Insert(ctx, u)
		if err != nil {
			s.metrics.Observe("update_profile", "error")
			return users.PublicProfile{}, fmt.Errorf("auth: create profile: %w", err)
		}
		profile := created.Public()
		if err := s.sessions.Save(ctx, sessionID, profile); err != nil {
			return users.PublicProfile{}, err
		}
		s.metrics.Observe("update_profile", "created")
		s.logger.Info("guest profile persisted", "user_id", profile.ID)
		return profile, nil
	}

	existing, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.metrics.Observe("update_profile", "user_not_found")
			return users.PublicProfile{}, ErrUserNotFound
		}
		return users.PublicProfile{}, fmt.Errorf("auth: update profile lookup: %w", err)
	}
	patch.Apply(&existing.Profile)
	existing.UpdatedAt = now

	updated, err := s.users.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.metrics.Observe("update_profile", "user_not_found")
			return users.PublicProfile{}, ErrUserNotFound
		}
		s.metrics.Observe("update_profile", "error")
		return users.PublicProfile{}, fmt.Errorf("auth: update profile: %w", err)
	}
	// The store may return only what it wrote; keep the immutable fields.
	updated.Email = existing.Email
	updated.CreatedAt = existing.CreatedAt

	profile := updated.Public()
	if err := s.sessions.Save(ctx, sessionID, profile); err != nil {
		return users.PublicProfile{}, err
	}
	s.metrics.Observe("update_profile", "ok")
	return profile, nil
}

// UpdatePassword replaces the digest after re-verifying the current password.
// The session is not rotated.
func (s *Service) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("auth: update password lookup: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, currentPassword) {
		s.metrics.Observe("update_password", "invalid_credential")
		return ErrInvalidCredential
	}
	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, digest, s.now()); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("auth: update password: %w", err)
	}
	s.metrics.Observe("update_password", "ok")
	return nil
}
