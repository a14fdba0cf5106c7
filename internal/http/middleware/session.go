package middleware

import (
	"context"
	"net/http"

	"github.com/wolfman30/telehealth-portal/internal/auth"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// IdentityLoader resolves a browser session to whoever it holds.
type IdentityLoader interface {
	CurrentIdentity(ctx context.Context, sessionID string) (auth.Identity, error)
}

// Session attaches the session's identity to the request context. It never
// rejects a request: downstream code decides what an anonymous caller may
// do. The mirrored profile cookie is client-controlled and never trusted here.
func Session(loader IdentityLoader, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.Anonymous()
			if c, err := r.Cookie(auth.SessionIDCookie); err == nil && c.Value != "" && loader != nil {
				id, err := loader.CurrentIdentity(r.Context(), c.Value)
				if err != nil {
					logger.Warn("session lookup failed", "error", err)
				} else {
					identity = id
				}
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}
