package appointments

import (
	"strings"
	"time"
)

// Status drives what the patient can do with a booking.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Appointment is one booked visit with a specialist.
type Appointment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	SpecialistID    string    `json:"specialist_id"`
	SpecialistType  string    `json:"specialist_type"`
	SpecialistName  string    `json:"specialist_name"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Reason          string    `json:"reason"`
	Notes           *string   `json:"notes"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateRequest is the booking form payload. Required fields are checked in
// declaration order and the first missing one is reported.
type CreateRequest struct {
	UserID          string  `json:"user_id" validate:"required"`
	SpecialistID    string  `json:"specialist_id" validate:"required"`
	AppointmentDate string  `json:"appointment_date" validate:"required"`
	AppointmentTime string  `json:"appointment_time" validate:"required"`
	SpecialistType  string  `json:"specialist_type"`
	SpecialistName  string  `json:"specialist_name"`
	Reason          string  `json:"reason"`
	Notes           *string `json:"notes"`
	Status          Status  `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
}

// Normalize trims whitespace so blank values count as missing.
func (r *CreateRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.SpecialistID = strings.TrimSpace(r.SpecialistID)
	r.AppointmentDate = strings.TrimSpace(r.AppointmentDate)
	r.AppointmentTime = strings.TrimSpace(r.AppointmentTime)
	if r.Status == "" {
		r.Status = StatusScheduled
	}
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	SpecialistID    *string `json:"specialist_id"`
	SpecialistType  *string `json:"specialist_type"`
	SpecialistName  *string `json:"specialist_name"`
	AppointmentDate *string `json:"appointment_date"`
	AppointmentTime *string `json:"appointment_time"`
	Reason          *string `json:"reason"`
	Notes           *string `json:"notes"`
	Status          *Status `json:"status" validate:"omitnil,oneof=scheduled completed cancelled"`
}

// Apply merges the patch into a.
func (p Patch) Apply(a *Appointment) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&a.SpecialistID, p.SpecialistID)
	setString(&a.SpecialistType, p.SpecialistType)
	setString(&a.SpecialistName, p.SpecialistName)
	setString(&a.AppointmentDate, p.AppointmentDate)
	setString(&a.AppointmentTime, p.AppointmentTime)
	setString(&a.Reason, p.Reason)
	if p.Notes != nil {
		v := *p.Notes
		a.Notes = &v
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}
