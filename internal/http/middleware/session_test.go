package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/telehealth-portal/internal/auth"
	"github.com/wolfman30/telehealth-portal/internal/users"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

type stubLoader struct {
	identity auth.Identity
	err      error
	calls    []string
}

func (s *stubLoader) CurrentIdentity(ctx context.Context, sessionID string) (auth.Identity, error) {
	s.calls = append(s.calls, sessionID)
	return s.identity, s.err
}

func serveSession(loader IdentityLoader, cookie string) (auth.Identity, int) {
	var seen auth.Identity
	h := Session(loader, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionIDCookie, Value: cookie})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return seen, rr.Code
}

func TestSessionWithoutCookieIsAnonymous(t *testing.T) {
	loader := &stubLoader{}
	identity, code := serveSession(loader, "")

	assert.Equal(t, http.StatusOK, code)
	assert.False(t, identity.IsAuthenticated())
	assert.Empty(t, loader.calls)
}

func TestSessionAttachesLoadedIdentity(t *testing.T) {
	loader := &stubLoader{identity: auth.Authenticated(users.PublicProfile{ID: "u-1", Email: "pat@example.com"})}
	identity, _ := serveSession(loader, "sid-1")

	assert.Equal(t, []string{"sid-1"}, loader.calls)
	assert.True(t, identity.IsAuthenticated())
	assert.Equal(t, "u-1", identity.UserID())
}

func TestSessionLookupFailureStillServes(t *testing.T) {
	loader := &stubLoader{err: errors.New("redis down")}
	identity, code := serveSession(loader, "sid-1")

	assert.Equal(t, http.StatusOK, code)
	assert.False(t, identity.IsAuthenticated())
}
