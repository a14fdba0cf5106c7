package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/telehealth-portal/internal/appointments"
	"github.com/wolfman30/telehealth-portal/internal/observability/metrics"
	"github.com/wolfman30/telehealth-portal/internal/users"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

var notifyTracer = otel.Tracer("telehealth.internal.notify")

// ErrAppointmentNotFound means there is nothing to notify about.
var ErrAppointmentNotFound = errors.New("notify: appointment not found")

// AppointmentReader loads the persisted booking.
type AppointmentReader interface {
	GetByID(ctx context.Context, id string) (appointments.Appointment, error)
}

// PatientResolver loads the patient's profile for their address and name.
type PatientResolver interface {
	FindByID(ctx context.Context, id string) (users.User, error)
}

// NotificationResult reports each recipient independently.
type NotificationResult struct {
	PatientEmailSent bool `json:"patient_email_sent"`
	DoctorEmailSent  bool `json:"doctor_email_sent"`
}

// Any reports whether at least one email went out.
func (r NotificationResult) Any() bool {
	return r.PatientEmailSent || r.DoctorEmailSent
}

// Service sends the patient confirmation and doctor alert for a booking.
type Service struct {
	appointments AppointmentReader
	patients     PatientResolver
	directory    ProviderDirectory
	email        EmailSender
	metrics      *metrics.NotificationMetrics
	logger       *logging.Logger
}

// NewService creates a notification service.
func NewService(appts AppointmentReader, patients PatientResolver, directory ProviderDirectory, email EmailSender, m *metrics.NotificationMetrics, logger *logging.Logger) *Service {
	if appts == nil {
		panic("notify: appointment reader required")
	}
	if email == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		appointments: appts,
		patients:     patients,
		directory:    directory,
		email:        email,
		metrics:      m,
		logger:       logger,
	}
}

// NotifyAppointmentCreated fans out the two appointment emails. Each branch
// fails on its own: a missing patient, an unresolvable doctor, or a rejected
// send only flips that branch's flag. The only error returned is
// ErrAppointmentNotFound (or a failure to load the appointment at all).
func (s *Service) NotifyAppointmentCreated(ctx context.Context, appointmentID string) (NotificationResult, error) {
	ctx, span := notifyTracer.Start(ctx, "notify.appointment_created")
	defer span.End()
	span.SetAttributes(attribute.String("telehealth.appointment_id", appointmentID))

	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, appointments.ErrNotFound) {
			return NotificationResult{}, ErrAppointmentNotFound
		}
		return NotificationResult{}, fmt.Errorf("notify: load appointment: %w", err)
	}

	details := emailDetails{
		When:           FormatAppointmentWhen(appt.AppointmentDate, appt.AppointmentTime),
		SpecialistName: appt.SpecialistName,
		SpecialistType: appt.SpecialistType,
		PatientName:    "A patient",
		Reason:         appt.Reason,
	}
	if appt.Notes != nil {
		details.Notes = *appt.Notes
	}

	var result NotificationResult

	patient, patientErr := s.resolvePatient(ctx, appt.UserID)
	if patientErr == nil && patient.FullName != "" {
		details.PatientName = patient.FullName
	}
	if patientErr != nil {
		s.logger.Warn("notify: patient unresolved, skipping confirmation", "error", patientErr, "appointment_id", appt.ID, "user_id", appt.UserID)
		s.metrics.ObserveSend("patient", false)
	} else {
		result.PatientEmailSent = s.sendPatient(ctx, appt, patient, details)
	}

	result.DoctorEmailSent = s.sendDoctor(ctx, appt, details)

	span.SetAttributes(
		attribute.Bool("telehealth.patient_email_sent", result.PatientEmailSent),
		attribute.Bool("telehealth.doctor_email_sent", result.DoctorEmailSent),
	)
	s.logger.Info("appointment notifications dispatched",
		"appointment_id", appt.ID,
		"patient_email_sent", result.PatientEmailSent,
		"doctor_email_sent", result.DoctorEmailSent,
	)
	return result, nil
}

func (s *Service) resolvePatient(ctx context.Context, userID string) (users.User, error) {
	if s.patients == nil {
		return users.User{}, errors.New("notify: patient resolver not configured")
	}
	u, err := s.patients.FindByID(ctx, userID)
	if err != nil {
		return users.User{}, err
	}
	if strings.TrimSpace(u.Email) == "" {
		return users.User{}, fmt.Errorf("notify: patient %s has no email", userID)
	}
	return u, nil
}

func (s *Service) sendPatient(ctx context.Context, appt appointments.Appointment, patient users.User, details emailDetails) bool {
	details.RecipientName = patient.FullName
	if details.RecipientName == "" {
		details.RecipientName = "there"
	}
	msg, err := patientConfirmation(details)
	if err != nil {
		s.logger.Error("notify: patient email render failed", "error", err, "appointment_id", appt.ID)
		s.metrics.ObserveSend("patient", false)
		return false
	}
	msg.To = patient.Email
	msg.ToName = patient.FullName
	return s.dispatch(ctx, "patient", appt.ID, msg)
}

func (s *Service) sendDoctor(ctx context.Context, appt appointments.Appointment, details emailDetails) bool {
	if s.directory == nil {
		s.logger.Warn("notify: provider directory not configured, skipping doctor alert", "appointment_id", appt.ID)
		s.metrics.ObserveSend("doctor", false)
		return false
	}
	contact, err := s.resolveContact(ctx, appt.SpecialistID)
	if err != nil {
		s.logger.Warn("notify: provider unresolved, skipping doctor alert", "error", err, "appointment_id", appt.ID, "specialist_id", appt.SpecialistID)
		s.metrics.ObserveSend("doctor", false)
		return false
	}

	details.RecipientName = firstNonEmpty(contact.Name, appt.SpecialistName, "Doctor")
	msg, err := doctorAlert(details)
	if err != nil {
		s.logger.Error("notify: doctor email render failed", "error", err, "appointment_id", appt.ID)
		s.metrics.ObserveSend("doctor", false)
		return false
	}
	msg.To = contact.Email
	msg.ToName = details.RecipientName
	return s.dispatch(ctx, "doctor", appt.ID, msg)
}

// resolveContact reports a panicking directory as an error.
func (s *Service) resolveContact(ctx context.Context, specialistID string) (contact ProviderContact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notify: provider directory panicked: %v", r)
		}
	}()
	return s.directory.ResolveProviderContact(ctx, specialistID)
}

// dispatch downgrades provider errors to false.
func (s *Service) dispatch(ctx context.Context, recipient, appointmentID string, msg EmailMessage) bool {
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: email send failed", "error", err, "recipient", recipient, "appointment_id", appointmentID)
		s.metrics.ObserveSend(recipient, false)
		return false
	}
	s.metrics.ObserveSend(recipient, true)
	return true
}

// DoctorAlert is an ad-hoc booking alert for a doctor, sent without a
// persisted appointment.
type DoctorAlert struct {
	To              ProviderContact
	DoctorName      string
	PatientName     string
	AppointmentDate string
	AppointmentTime string
	Reason          string
	Notes           string
}

// SendDoctorAlert renders and sends one doctor alert. Unlike the fan-out,
// the send error is returned to the caller.
func (s *Service) SendDoctorAlert(ctx context.Context, alert DoctorAlert) error {
	details := emailDetails{
		RecipientName: firstNonEmpty(alert.DoctorName, alert.To.Name, "Doctor"),
		When:          FormatAppointmentWhen(alert.AppointmentDate, alert.AppointmentTime),
		PatientName:   firstNonEmpty(alert.PatientName, "A patient"),
		Reason:        alert.Reason,
		Notes:         alert.Notes,
	}
	msg, err := doctorAlert(details)
	if err != nil {
		return err
	}
	msg.To = alert.To.Email
	msg.ToName = details.RecipientName
	if err := s.email.Send(ctx, msg); err != nil {
		s.metrics.ObserveSend("doctor", false)
		return err
	}
	s.metrics.ObserveSend("doctor", true)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
