package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository is the appointment persistence boundary. The privileged and
// row-level-secured implementations share it.
type Repository interface {
	// Ping is a cheap read used to tell "store unreachable" from "insert rejected".
	Ping(ctx context.Context) error
	Create(ctx context.Context, req CreateRequest) (Appointment, error)
	GetByID(ctx context.Context, id string) (Appointment, error)
	// ListByUser orders by date then time, ascending. No rows is an empty slice.
	ListByUser(ctx context.Context, userID string) ([]Appointment, error)
	Update(ctx context.Context, id string, patch Patch) (Appointment, error)
	// Delete returns ErrNotFound when the row is already gone.
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps appointments in a map.
type InMemoryRepository struct {
	mu           sync.RWMutex
	appointments map[string]Appointment
	now          func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appointments: make(map[string]Appointment),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source.
func (r *InMemoryRepository) WithClock(now func() time.Time) *InMemoryRepository {
	r.now = now
	return r
}

func (r *InMemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *InMemoryRepository) Create(ctx context.Context, req CreateRequest) (Appointment, error) {
	now := r.now()
	a := Appointment{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		SpecialistID:    req.SpecialistID,
		SpecialistType:  req.SpecialistType,
		SpecialistName:  req.SpecialistName,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
		Notes:           copyString(req.Notes),
		Status:          req.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}

	r.mu.Lock()
	r.appointments[a.ID] = a
	r.mu.Unlock()
	return a, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	r.mu.RLock()
	out := make([]Appointment, 0)
	for _, a := range r.appointments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AppointmentDate != out[j].AppointmentDate {
			return out[i].AppointmentDate < out[j].AppointmentDate
		}
		return out[i].AppointmentTime < out[j].AppointmentTime
	})
	return out, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, patch Patch) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	patch.Apply(&a)
	a.UpdatedAt = r.now()
	r.appointments[id] = a
	return a, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
