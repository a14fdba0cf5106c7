package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/telehealth-portal/internal/users"
)

// SessionIDCookie identifies the browser session across tabs.
const SessionIDCookie = "telehealth_sid"

// mirroredProfile is what the client-readable cookie carries. Medical
// fields stay server side and the value stays far below the 4KB limit.
type mirroredProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// EncodeProfile serializes the identifying part of a profile for the
// mirrored cookie.
func EncodeProfile(p users.PublicProfile) (string, error) {
	data, err := json.Marshal(mirroredProfile{ID: p.ID, Email: p.Email, FullName: p.FullName})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeProfile reverses EncodeProfile.
func DecodeProfile(value string) (Identity, error) {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Anonymous(), fmt.Errorf("auth: decode profile cookie: %w", err)
	}
	var m mirroredProfile
	if err := json.Unmarshal(data, &m); err != nil {
		return Anonymous(), fmt.Errorf("auth: decode profile cookie: %w", err)
	}
	if m.ID == "" {
		return Anonymous(), nil
	}
	return Authenticated(users.PublicProfile{ID: m.ID, Email: m.Email, Profile: users.Profile{FullName: m.FullName}}), nil
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

// sessionID returns the request's session id, issuing one if absent.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionIDCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := newSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionIDCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handler) setProfileCookie(w http.ResponseWriter, p users.PublicProfile) {
	value, err := EncodeProfile(p)
	if err != nil {
		h.logger.Warn("auth: encode profile cookie", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionKey,
		Value:    value,
		Path:     "/",
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearProfileCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionKey,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
