package medications

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/telehealth-portal/internal/validation"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// Handler serves the medication tracker.
type Handler struct {
	repo   Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("medications: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

// Routes mounts the medication endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/taken", h.MarkAsTaken)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type takenRequest struct {
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Taken *bool  `json:"taken"`
}

// Create handles POST /medications.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	req.Normalize()
	if err := validation.First(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	m, err := h.repo.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create medication", "error", err, "user_id", req.UserID)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// List handles GET /medications?userId=X.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "userId is required"})
		return
	}
	list, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list medications", "error", err, "user_id", userID)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Update handles PATCH /medications/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := validation.First(patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	m, err := h.repo.Update(r.Context(), id, patch)
	if err != nil {
		h.writeRepoError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Delete handles DELETE /medications/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeRepoError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Medication deleted"})
}

// MarkAsTaken handles POST /medications/{id}/taken. The body is optional:
// date defaults to today and taken to true.
func (h *Handler) MarkAsTaken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req takenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := validation.First(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Date == "" {
		req.Date = h.now().Format("2006-01-02")
	}
	taken := true
	if req.Taken != nil {
		taken = *req.Taken
	}

	m, err := h.repo.MarkAsTaken(r.Context(), id, req.Date, taken)
	if err != nil {
		h.writeRepoError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) writeRepoError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	h.logger.Error("medication store error", "error", err, "medication_id", id)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
