package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/telehealth-portal/internal/observability/metrics"
	"github.com/wolfman30/telehealth-portal/internal/validation"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

var appointmentsTracer = otel.Tracer("telehealth.internal.appointments")

// Notifier is told about each new booking. Implementations absorb their own
// failures; a booking that fails to notify is still a booking.
type Notifier interface {
	AppointmentCreated(ctx context.Context, appt Appointment)
}

// ScopeFunc returns the row-level-secured repository for one request.
type ScopeFunc func(r *http.Request) Repository

// Handler is the booking API: validate, persist, notify, respond.
type Handler struct {
	privileged Repository
	scope      ScopeFunc
	notifier   Notifier
	metrics    *metrics.AppointmentMetrics
	logger     *logging.Logger
}

// NewHandler wires the orchestrator. Creation always goes through
// privileged; reads and edits go through scope when it is set.
func NewHandler(privileged Repository, scope ScopeFunc, notifier Notifier, m *metrics.AppointmentMetrics, logger *logging.Logger) *Handler {
	if privileged == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		privileged: privileged,
		scope:      scope,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
	}
}

// Routes mounts the appointment endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.guard("create", h.Create))
	r.Get("/", h.guard("list", h.List))
	r.Get("/{id}", h.guard("get", h.Get))
	r.Patch("/{id}", h.guard("update", h.Update))
	r.Delete("/{id}", h.guard("delete", h.Delete))
	return r
}

type createdResponse struct {
	ID string `json:"id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// reader picks the repository for client-initiated reads and edits.
func (h *Handler) reader(r *http.Request) Repository {
	if h.scope != nil {
		if repo := h.scope(r); repo != nil {
			return repo
		}
	}
	return h.privileged
}

// Create handles POST /appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := appointmentsTracer.Start(r.Context(), "appointments.create")
	defer span.End()

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
	span.SetAttributes(
		attribute.String("telehealth.user_id", req.UserID),
		attribute.String("telehealth.specialist_id", req.SpecialistID),
	)

	if err := h.privileged.Ping(ctx); err != nil {
		span.RecordError(err)
		h.logger.Error("appointment store unreachable", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "database connection failed: " + err.Error()})
		return
	}

	appt, err := h.privileged.Create(ctx, req)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("failed to create appointment", "error", err, "user_id", req.UserID)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	span.SetAttributes(attribute.String("telehealth.appointment_id", appt.ID))
	h.logger.Info("appointment created", "appointment_id", appt.ID, "user_id", appt.UserID, "specialist_id", appt.SpecialistID)

	h.notify(ctx, appt)

	writeJSON(w, http.StatusCreated, createdResponse{ID: appt.ID})
}

// notify tells the notifier about a persisted booking. A notifier panic is
// logged here so the booking is still answered with 201.
func (h *Handler) notify(ctx context.Context, appt Appointment) {
	if h.notifier == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("appointment notifier panicked", "appointment_id", appt.ID, "panic", fmt.Sprint(p))
		}
	}()
	h.notifier.AppointmentCreated(ctx, appt)
}

// List handles GET /appointments?userId=X.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "userId is required"})
		return
	}

	list, err := h.reader(r).ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "user_id", userID)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	appt, err := h.reader(r).GetByID(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, "get", id, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Update handles PATCH /appointments/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := validation.First(patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	appt, err := h.reader(r).Update(r.Context(), id, patch)
	if err != nil {
		h.writeRepoError(w, "update", id, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /appointments/{id}. Deleting an already removed
// appointment is a 404.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.reader(r).Delete(r.Context(), id); err != nil {
		h.writeRepoError(w, "delete", id, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Appointment deleted"})
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "appointment id is required"})
		return "", false
	}
	return id, true
}

func (h *Handler) writeRepoError(w http.ResponseWriter, op, id string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	h.logger.Error("appointment store error", "error", err, "operation", op, "appointment_id", id)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// guard is the last line of defense for every verb: a panic becomes a 500
// with whatever message can be extracted. It also records the outcome.
func (h *Handler) guard(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				h.logger.Error("unexpected error in appointment handler", "operation", op, "panic", fmt.Sprint(p))
				if !rec.wroteHeader {
					writeJSON(rec, http.StatusInternalServerError, errorResponse{Error: panicMessage(p)})
				} else {
					rec.status = http.StatusInternalServerError
				}
			}
			h.metrics.Observe(op, statusClass(rec.status), time.Since(start).Seconds())
		}()
		next(rec, r)
	}
}

func panicMessage(p any) string {
	switch v := p.(type) {
	case error:
		if msg := v.Error(); msg != "" {
			return msg
		}
	case string:
		if v != "" {
			return v
		}
	case fmt.Stringer:
		if msg := v.String(); msg != "" {
			return msg
		}
	}
	return "unknown error"
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "error"
	case code >= 400:
		return "rejected"
	default:
		return "ok"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
