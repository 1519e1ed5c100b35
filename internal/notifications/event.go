package notifications

import (
	"context"
	"errors"
	"time"

	"dern-backend/internal/models"

	"github.com/google/uuid"
)

const (
	EventAppointmentCreated  = "appointment.created"
	EventAppointmentUpdated  = "appointment.updated"
	EventAppointmentCanceled = "appointment.canceled"
)

type Event struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	ActorID     string             `json:"actorId"`
	OccurredAt  time.Time          `json:"occurredAt"`
	Appointment models.Appointment `json:"appointment"`
}

func NewEvent(eventType, actorID string, appointment models.Appointment, now time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ActorID:     actorID,
		OccurredAt:  now.UTC(),
		Appointment: appointment,
	}
}

// Notifier receives committed appointment events. Delivery is best effort: an error is
// reported to the caller for logging and never undoes the mutation.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, evt Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
