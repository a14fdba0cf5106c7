package auth

import (
	"context"

	"github.com/wolfman30/telehealth-portal/internal/users"
)

// Identity is the optional authenticated user held by a session. The zero
// value means "not authenticated"; there is no guest user to fall back on.
type Identity struct {
	profile *users.PublicProfile
}

// Authenticated wraps a profile as a present identity.
func Authenticated(p users.PublicProfile) Identity {
	return Identity{profile: &p}
}

// Anonymous is the absent identity.
func Anonymous() Identity {
	return Identity{}
}

func (i Identity) IsAuthenticated() bool {
	return i.profile != nil
}

// Profile returns the held profile and whether one is present.
func (i Identity) Profile() (users.PublicProfile, bool) {
	if i.profile == nil {
		return users.PublicProfile{}, false
	}
	return *i.profile, true
}

// UserID returns the authenticated user's id, or "" when anonymous.
func (i Identity) UserID() string {
	if i.profile == nil {
		return ""
	}
	return i.profile.ID
}

// Subject says who a profile update applies to: a guest completing their
// profile for the first time, or an already persisted user.
type Subject struct {
	id string
}

// Guest is a not-yet-persisted visitor. Updating a guest creates a user.
func Guest() Subject {
	return Subject{}
}

// Identified targets an existing user row.
func Identified(id string) Subject {
	return Subject{id: id}
}

func (s Subject) IsGuest() bool {
	return s.id == ""
}

func (s Subject) ID() (string, bool) {
	return s.id, s.id != ""
}

type ctxKey string

const identityKey ctxKey = "telehealth.identity"

// WithIdentity stores the identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity if one was attached. Its absence
// is reported as Anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok {
		return Anonymous()
	}
	return id
}
