package notify

import (
	"context"
	"fmt"

	"github.com/wolfman30/telehealth-portal/internal/appointments"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// InlineTrigger runs the notification fan-out inside the booking request.
// Its outcome is logged and never reported to the caller.
type InlineTrigger struct {
	service *Service
	logger  *logging.Logger
}

func NewInlineTrigger(service *Service, logger *logging.Logger) *InlineTrigger {
	if service == nil {
		panic("notify: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &InlineTrigger{service: service, logger: logger}
}

func (t *InlineTrigger) AppointmentCreated(ctx context.Context, appt appointments.Appointment) {
	defer func() {
		if p := recover(); p != nil {
			t.logger.Error("notify: appointment notification panicked", "appointment_id", appt.ID, "panic", fmt.Sprint(p))
		}
	}()
	result, err := t.service.NotifyAppointmentCreated(ctx, appt.ID)
	if err != nil {
		t.logger.Error("notify: appointment notification failed", "error", err, "appointment_id", appt.ID)
		return
	}
	if !result.Any() {
		t.logger.Warn("notify: no appointment emails were sent", "appointment_id", appt.ID)
	}
}

var _ appointments.Notifier = (*InlineTrigger)(nil)
