package notify

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wolfman30/telehealth-portal/internal/validation"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// Handler serves POST /notifications/send.
type Handler struct {
	service   *Service
	directory ProviderDirectory
	inbox     string
	logger    *logging.Logger
}

// NewHandler creates the handler. Alerts go to the specialist's resolved
// address when the request names one, otherwise to inbox.
func NewHandler(service *Service, directory ProviderDirectory, inbox string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, directory: directory, inbox: strings.TrimSpace(inbox), logger: logger}
}

type sendRequest struct {
	DoctorName      string `json:"doctorName" validate:"required"`
	AppointmentDate string `json:"appointmentDate" validate:"required"`
	AppointmentTime string `json:"appointmentTime" validate:"required"`
	Reason          string `json:"reason" validate:"required"`
	PatientName     string `json:"patientName"`
	Notes           string `json:"notes"`
	SpecialistID    string `json:"specialistId"`
}

type sendResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Send handles POST /notifications/send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	req.DoctorName = strings.TrimSpace(req.DoctorName)
	req.AppointmentDate = strings.TrimSpace(req.AppointmentDate)
	req.AppointmentTime = strings.TrimSpace(req.AppointmentTime)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validation.First(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields: " + err.Error()})
		return
	}

	to := ProviderContact{Email: h.inbox, Name: req.DoctorName}
	if req.SpecialistID != "" && h.directory != nil {
		contact, err := h.directory.ResolveProviderContact(r.Context(), req.SpecialistID)
		if err != nil {
			h.logger.Warn("notify: provider unresolved for ad-hoc alert", "error", err, "specialist_id", req.SpecialistID)
		} else {
			to.Email = contact.Email
		}
	}
	if to.Email == "" {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "no recipient configured for doctor notifications"})
		return
	}

	err := h.service.SendDoctorAlert(r.Context(), DoctorAlert{
		To:              to,
		DoctorName:      req.DoctorName,
		PatientName:     req.PatientName,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
		Notes:           req.Notes,
	})
	if err != nil {
		h.logger.Error("notify: ad-hoc doctor alert failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sendResponse{Success: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
