package medications

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when no medication has the requested id.
var ErrNotFound = errors.New("medication not found")

// Dose is one calendar day's record.
type Dose struct {
	Date  string `json:"date"`
	Taken bool   `json:"taken"`
}

// Medication is a prescription the patient tracks with reminders.
type Medication struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	TimeOfDay    string    `json:"time_of_day"`
	Instructions *string   `json:"instructions"`
	Reminders    bool      `json:"reminders"`
	Adherence    int       `json:"adherence"`
	History      []Dose    `json:"history"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRequest is the add-medication form.
type CreateRequest struct {
	UserID       string  `json:"user_id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Dosage       string  `json:"dosage" validate:"required"`
	Frequency    string  `json:"frequency" validate:"required,oneof=once-daily twice-daily three-times-daily four-times-daily as-needed weekly"`
	TimeOfDay    string  `json:"time_of_day" validate:"required,oneof=morning afternoon evening bedtime with-meals"`
	Instructions *string `json:"instructions"`
	Reminders    bool    `json:"reminders"`
}

// Normalize trims the free-text fields.
func (r *CreateRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Name = strings.TrimSpace(r.Name)
	r.Dosage = strings.TrimSpace(r.Dosage)
	r.Frequency = strings.TrimSpace(r.Frequency)
	r.TimeOfDay = strings.TrimSpace(r.TimeOfDay)
}

// Patch is a partial update; nil fields are left untouched. History and
// adherence only change through MarkAsTaken.
type Patch struct {
	Name         *string `json:"name"`
	Dosage       *string `json:"dosage"`
	Frequency    *string `json:"frequency" validate:"omitnil,oneof=once-daily twice-daily three-times-daily four-times-daily as-needed weekly"`
	TimeOfDay    *string `json:"time_of_day" validate:"omitnil,oneof=morning afternoon evening bedtime with-meals"`
	Instructions *string `json:"instructions"`
	Reminders    *bool   `json:"reminders"`
}

// Apply merges the patch into m.
func (p Patch) Apply(m *Medication) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.Frequency != nil {
		m.Frequency = *p.Frequency
	}
	if p.TimeOfDay != nil {
		m.TimeOfDay = *p.TimeOfDay
	}
	if p.Instructions != nil {
		v := *p.Instructions
		m.Instructions = &v
	}
	if p.Reminders != nil {
		m.Reminders = *p.Reminders
	}
}

// Adherence is round(100 * taken / records), 0 for an empty history.
func Adherence(history []Dose) int {
	if len(history) == 0 {
		return 0
	}
	taken := 0
	for _, d := range history {
		if d.Taken {
			taken++
		}
	}
	return int(math.Round(100 * float64(taken) / float64(len(history))))
}

// RecordDose sets the record for date, replacing an existing one for the same
// day, keeps history ordered by date and recomputes adherence.
func (m *Medication) RecordDose(date string, taken bool) {
	replaced := false
	for i := range m.History {
		if m.History[i].Date == date {
			m.History[i].Taken = taken
			replaced = true
			break
		}
	}
	if !replaced {
		m.History = append(m.History, Dose{Date: date, Taken: taken})
	}
	sort.SliceStable(m.History, func(i, j int) bool {
		return m.History[i].Date < m.History[j].Date
	})
	m.Adherence = Adherence(m.History)
}
