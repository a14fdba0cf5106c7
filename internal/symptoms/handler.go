package symptoms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/telehealth-portal/internal/auth"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// maxAttachmentBytes caps decoded attachments.
const maxAttachmentBytes = 5 << 20

// ReplyAnnotator decorates a model reply before it reaches the patient.
type ReplyAnnotator interface {
	Annotate(ctx context.Context, reply, userID string) string
}

// CheckAuditor records each check without its content.
type CheckAuditor interface {
	LogSymptomCheck(ctx context.Context, userID string, turns int, hasAttachment bool, failure error) error
}

// Handler serves POST /symptoms/check.
type Handler struct {
	checker   *Checker
	annotator ReplyAnnotator
	auditor   CheckAuditor
	logger    *logging.Logger
}

func NewHandler(checker *Checker, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{checker: checker, logger: logger}
}

// WithCompliance attaches the reply disclaimer and audit trail.
func (h *Handler) WithCompliance(annotator ReplyAnnotator, auditor CheckAuditor) *Handler {
	h.annotator = annotator
	h.auditor = auditor
	return h
}

type checkRequest struct {
	Messages   []Message `json:"messages"`
	Attachment *struct {
		MIMEType string `json:"mime_type"`
		Data     string `json:"data"` // base64
	} `json:"attachment,omitempty"`
}

type checkResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 2*maxAttachmentBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var attachment *Attachment
	if req.Attachment != nil && req.Attachment.Data != "" {
		data, err := base64.StdEncoding.DecodeString(req.Attachment.Data)
		if err != nil || len(data) > maxAttachmentBytes {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "attachment must be base64 and at most 5MB"})
			return
		}
		attachment = &Attachment{MIMEType: req.Attachment.MIMEType, Data: data}
	}

	ctx := r.Context()
	userID := auth.IdentityFromContext(ctx).UserID()
	reply, err := h.checker.Check(ctx, req.Messages, attachment)
	if err != nil {
		if errors.Is(err, ErrEmptyConversation) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Error("symptom check failed", "error", err)
		h.audit(ctx, userID, len(req.Messages), attachment != nil, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "symptom checker is unavailable"})
		return
	}
	h.audit(ctx, userID, len(req.Messages), attachment != nil, nil)
	if h.annotator != nil {
		reply = h.annotator.Annotate(ctx, reply, userID)
	}
	writeJSON(w, http.StatusOK, checkResponse{Reply: reply})
}

func (h *Handler) audit(ctx context.Context, userID string, turns int, hasAttachment bool, failure error) {
	if h.auditor == nil {
		return
	}
	if err := h.auditor.LogSymptomCheck(ctx, userID, turns, hasAttachment, failure); err != nil {
		h.logger.Warn("symptom check audit failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
