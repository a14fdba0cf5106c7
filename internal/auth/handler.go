package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/telehealth-portal/internal/users"
	"github.com/wolfman30/telehealth-portal/internal/validation"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// Handler exposes the auth service over HTTP.
type Handler struct {
	service       *Service
	secureCookies bool
	logger        *logging.Logger
}

// NewHandler creates an auth handler. secureCookies marks cookies Secure.
func NewHandler(service *Service, secureCookies bool, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, secureCookies: secureCookies, logger: logger}
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// passwordRequest has no user id: the account is always the session's.
type passwordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SignUp handles POST /auth/signup.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !h.decode(w, r, &req) {
		return
	}
	sid := h.sessionID(w, r)

	profile, err := h.service.SignUp(r.Context(), sid, req.Email, req.Password, SignUpMetadata{FullName: req.FullName})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		case errors.Is(err, ErrMissingCredentials):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			h.logger.Error("sign up failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to create account"})
		}
		return
	}

	h.setProfileCookie(w, profile)
	writeJSON(w, http.StatusCreated, profile)
}

// SignIn handles POST /auth/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !h.decode(w, r, &req) {
		return
	}
	sid := h.sessionID(w, r)

	profile, err := h.service.SignIn(r.Context(), sid, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, ErrInvalidCredential):
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		case errors.Is(err, ErrMissingCredentials):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			h.logger.Error("sign in failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to sign in"})
		}
		return
	}

	h.setProfileCookie(w, profile)
	writeJSON(w, http.StatusOK, profile)
}

// SignOut handles POST /auth/signout. It always succeeds.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionIDCookie); err == nil && c.Value != "" {
		h.service.SignOut(r.Context(), c.Value)
	}
	h.clearProfileCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Signed out"})
}

// Session handles GET /auth/session: 200 with the profile, 204 when nobody
// is signed in.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionIDCookie)
	if err != nil || c.Value == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	identity, err := h.service.CurrentIdentity(r.Context(), c.Value)
	if err != nil {
		h.logger.Warn("session load failed", "error", err)
	}
	profile, ok := identity.Profile()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /profile. An anonymous caller is treated as a
// guest completing their profile, which creates the user.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch users.ProfilePatch
	if !h.decode(w, r, &patch) {
		return
	}
	sid := h.sessionID(w, r)

	// Only a session that loaded cleanly and holds nobody is a guest. A
	// failed load must not mint a new user over the signed-in one.
	identity, err := h.service.CurrentIdentity(r.Context(), sid)
	if err != nil {
		h.logger.Error("session load failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load session"})
		return
	}
	subject := Guest()
	if identity.IsAuthenticated() {
		subject = Identified(identity.UserID())
	}

	profile, err := h.service.UpdateProfile(r.Context(), sid, subject, patch)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("profile update failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to update profile"})
		return
	}

	h.setProfileCookie(w, profile)
	writeJSON(w, http.StatusOK, profile)
}

// UpdatePassword handles POST /profile/password.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !h.decode(w, r, &req) {
		return
	}

	var userID string
	if c, err := r.Cookie(SessionIDCookie); err == nil && c.Value != "" {
		identity, err := h.service.CurrentIdentity(r.Context(), c.Value)
		if err != nil {
			h.logger.Error("session load failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load session"})
			return
		}
		userID = identity.UserID()
	}
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not signed in"})
		return
	}

	err := h.service.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, messageResponse{Message: "Password updated"})
	case errors.Is(err, ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidCredential):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "current password is incorrect"})
	default:
		h.logger.Error("password update failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to update password"})
	}
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	if err := validation.First(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
