package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"dern-backend/internal/models"
	"dern-backend/internal/notifications"

	"go.mongodb.org/mongo-driver/mongo"
)

type memRepo struct {
	mu    sync.Mutex
	items map[string]models.Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[string]models.Appointment)}
}

func (r *memRepo) Create(ctx context.Context, appt models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[appt.ID] = appt
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.items[id]
	if !ok {
		return models.Appointment{}, mongo.ErrNoDocuments
	}
	return appt, nil
}

func sorted(items []models.Appointment) []models.Appointment {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].StartTime.Equal(items[j].StartTime) {
			return items[i].StartTime.Before(items[j].StartTime)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (r *memRepo) ListActiveByTechnician(ctx context.Context, technicianID, excludeID string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.items {
		if a.Technician == technicianID && models.BlocksTime(a.Status) && a.ID != excludeID {
			out = append(out, a)
		}
	}
	return sorted(out), nil
}

func (r *memRepo) ListByTechnicianInRange(ctx context.Context, technicianID string, start, end time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.items {
		if a.Technician == technicianID && models.BlocksTime(a.Status) && !a.StartTime.After(end) && !a.EndTime.Before(start) {
			out = append(out, a)
		}
	}
	return sorted(out), nil
}

func (r *memRepo) Update(ctx context.Context, appt models.Appointment, expectedStatus string, expectedUpdatedAt time.Time) (models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[appt.ID]
	if !ok || current.Status != expectedStatus || !current.UpdatedAt.Equal(expectedUpdatedAt) {
		return models.Appointment{}, mongo.ErrNoDocuments
	}
	current.StartTime = appt.StartTime
	current.EndTime = appt.EndTime
	current.Status = appt.Status
	current.ServiceType = appt.ServiceType
	current.Priority = appt.Priority
	current.EstimatedDuration = appt.EstimatedDuration
	current.ActualDuration = appt.ActualDuration
	current.Notes = appt.Notes
	current.Location = appt.Location
	current.UpdatedAt = appt.UpdatedAt
	r.items[appt.ID] = current
	return current, nil
}

func (r *memRepo) Cancel(ctx context.Context, id, reason string, at time.Time, by string) (models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[id]
	if !ok || current.Status == models.AppointmentStatusCanceled {
		return models.Appointment{}, mongo.ErrNoDocuments
	}
	current.Status = models.AppointmentStatusCanceled
	current.CancellationReason = reason
	current.CanceledAt = &at
	current.CanceledBy = by
	r.items[id] = current
	return current, nil
}

func (r *memRepo) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.items {
		if filter.Participant != "" && !a.HasParticipant(filter.Participant) {
			continue
		}
		if filter.Technician != "" && a.Technician != filter.Technician {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	out = sorted(out)
	if offset >= int64(len(out)) {
		return []models.Appointment{}, nil
	}
	out = out[offset:]
	if limit < int64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) Count(ctx context.Context, filter ListFilter) (int64, error) {
	items, err := r.List(ctx, filter, 1<<31, 0)
	return int64(len(items)), err
}

type memTechnicians map[string]models.User

func (m memTechnicians) GetByID(ctx context.Context, id string) (models.User, error) {
	u, ok := m[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

type recordingNotifier struct {
	events chan notifications.Event
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan notifications.Event, 16)}
}

func (n *recordingNotifier) Notify(ctx context.Context, evt notifications.Event) error {
	n.events <- evt
	return nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}
