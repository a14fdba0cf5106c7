package medications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists medications.
type Repository interface {
	Create(ctx context.Context, req CreateRequest) (Medication, error)
	GetByID(ctx context.Context, id string) (Medication, error)
	// ListByUser orders by name.
	ListByUser(ctx context.Context, userID string) ([]Medication, error)
	Update(ctx context.Context, id string, patch Patch) (Medication, error)
	Delete(ctx context.Context, id string) error
	// MarkAsTaken records a dose for date (YYYY-MM-DD) and recomputes adherence.
	MarkAsTaken(ctx context.Context, id, date string, taken bool) (Medication, error)
}

// InMemoryRepository keeps medications in a map.
type InMemoryRepository struct {
	mu          sync.RWMutex
	medications map[string]Medication
	now         func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		medications: make(map[string]Medication),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, req CreateRequest) (Medication, error) {
	now := r.now()
	m := Medication{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		Name:         req.Name,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		TimeOfDay:    req.TimeOfDay,
		Instructions: req.Instructions,
		Reminders:    req.Reminders,
		History:      []Dose{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.mu.Lock()
	r.medications[m.ID] = m
	r.mu.Unlock()
	return clone(m), nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.medications[id]
	if !ok {
		return Medication{}, ErrNotFound
	}
	return clone(m), nil
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string) ([]Medication, error) {
	r.mu.RLock()
	out := make([]Medication, 0)
	for _, m := range r.medications {
		if m.UserID == userID {
			out = append(out, clone(m))
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, patch Patch) (Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.medications[id]
	if !ok {
		return Medication{}, ErrNotFound
	}
	patch.Apply(&m)
	m.UpdatedAt = r.now()
	r.medications[id] = m
	return clone(m), nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.medications[id]; !ok {
		return ErrNotFound
	}
	delete(r.medications, id)
	return nil
}

func (r *InMemoryRepository) MarkAsTaken(ctx context.Context, id, date string, taken bool) (Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.medications[id]
	if !ok {
		return Medication{}, ErrNotFound
	}
	m = clone(m)
	m.RecordDose(date, taken)
	m.UpdatedAt = r.now()
	r.medications[id] = m
	return clone(m), nil
}

func clone(m Medication) Medication {
	m.History = append([]Dose{}, m.History...)
	return m
}
