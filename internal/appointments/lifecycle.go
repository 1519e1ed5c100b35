package appointments

import (
	"context"
	"errors"
	"strings"

	"dern-backend/internal/auth"
	"dern-backend/internal/lock"
	"dern-backend/internal/models"
	"dern-backend/internal/notifications"
	"dern-backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opCancel = "cancel"
)

// transitions lists the status changes open to non-admin callers. Cancellation is only
// reachable through Cancel.
var transitions = map[string][]string{
	models.AppointmentStatusScheduled:  {models.AppointmentStatusInProgress, models.AppointmentStatusNoShow},
	models.AppointmentStatusInProgress: {models.AppointmentStatusCompleted},
}

func canTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Create books a new appointment for the caller. Admins may book on behalf of another
// client through ClientID.
func (s *Service) Create(ctx context.Context, actor auth.Identity, req CreateRequest) (appt models.Appointment, err error) {
	defer func() { s.record(opCreate, err) }()

	serviceType := strings.ToLower(strings.TrimSpace(req.ServiceType))
	if !models.IsValidServiceType(serviceType) {
		return models.Appointment{}, ErrInvalidServiceType
	}
	priority := strings.ToLower(strings.TrimSpace(req.Priority))
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return models.Appointment{}, ErrInvalidPriority
	}

	iv, err := schedule.NewInterval(req.StartTime.UTC(), req.EndTime.UTC())
	if err != nil {
		return models.Appointment{}, err
	}

	client := actor.ID
	if actor.IsAdmin() && strings.TrimSpace(req.ClientID) != "" {
		client = strings.TrimSpace(req.ClientID)
	}
	technicianID := strings.TrimSpace(req.TechnicianID)

	release, err := s.locker.Lock(ctx, lock.TechnicianKey(technicianID))
	if err != nil {
		return models.Appointment{}, err
	}
	defer release()

	if _, err := s.CheckAvailability(ctx, technicianID, iv, ""); err != nil {
		return models.Appointment{}, err
	}

	estimated := iv.Minutes()
	if req.EstimatedDuration != nil && *req.EstimatedDuration > 0 {
		estimated = *req.EstimatedDuration
	}

	now := s.Now()
	appt = models.Appointment{
		ID:                primitive.NewObjectID().Hex(),
		Client:            client,
		Technician:        technicianID,
		StartTime:         iv.Start,
		EndTime:           iv.End,
		Status:            models.AppointmentStatusScheduled,
		ServiceType:       serviceType,
		Priority:          priority,
		EstimatedDuration: estimated,
		Notes:             strings.TrimSpace(req.Notes),
		Location:          req.Location,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		return models.Appointment{}, err
	}

	s.invalidate(ctx, technicianID, iv)
	s.notify(notifications.EventAppointmentCreated, actor.ID, appt)
	return appt, nil
}

// Update applies the fields present in req. Terminal appointments are frozen for everyone
// but admins, and a change of time is re-checked against the technician's other bookings.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id string, req UpdateRequest) (appt models.Appointment, err error) {
	defer func() { s.record(opUpdate, err) }()

	current, err := s.load(ctx, id)
	if err != nil {
		return models.Appointment{}, err
	}
	if !canAccess(actor, current) {
		return models.Appointment{}, ErrForbidden
	}
	if current.IsTerminal() && !actor.IsAdmin() {
		return models.Appointment{}, ErrImmutableState
	}

	next := current
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if !models.IsValidStatus(status) {
			return models.Appointment{}, ErrInvalidStatus
		}
		if status == models.AppointmentStatusCanceled {
			return models.Appointment{}, ErrInvalidTransition
		}
		if status != current.Status && !actor.IsAdmin() && !canTransition(current.Status, status) {
			return models.Appointment{}, ErrInvalidTransition
		}
		next.Status = status
	}
	if req.ServiceType != nil {
		serviceType := strings.ToLower(strings.TrimSpace(*req.ServiceType))
		if !models.IsValidServiceType(serviceType) {
			return models.Appointment{}, ErrInvalidServiceType
		}
		next.ServiceType = serviceType
	}
	if req.Priority != nil {
		priority := strings.ToLower(strings.TrimSpace(*req.Priority))
		if !models.IsValidPriority(priority) {
			return models.Appointment{}, ErrInvalidPriority
		}
		next.Priority = priority
	}
	if req.EstimatedDuration != nil {
		next.EstimatedDuration = *req.EstimatedDuration
	}
	if req.ActualDuration != nil {
		next.ActualDuration = *req.ActualDuration
	}
	if req.Notes != nil {
		next.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Location != nil {
		next.Location = req.Location
	}

	timeChanged := false
	if req.StartTime != nil {
		next.StartTime = req.StartTime.UTC()
		timeChanged = true
	}
	if req.EndTime != nil {
		next.EndTime = req.EndTime.UTC()
		timeChanged = true
	}

	// Moving a canceled or completed appointment back to an active status claims its
	// time again, so it is checked like a move.
	reactivated := !models.BlocksTime(current.Status) && models.BlocksTime(next.Status)

	if timeChanged || reactivated {
		iv, err := schedule.NewInterval(next.StartTime, next.EndTime)
		if err != nil {
			return models.Appointment{}, err
		}
		release, err := s.locker.Lock(ctx, lock.TechnicianKey(current.Technician))
		if err != nil {
			return models.Appointment{}, err
		}
		defer release()

		if _, err := s.CheckAvailability(ctx, current.Technician, iv, current.ID); err != nil {
			return models.Appointment{}, err
		}
	}

	completing := next.Status == models.AppointmentStatusCompleted &&
		(current.Status != models.AppointmentStatusCompleted || next.ActualDuration == 0)
	if completing && req.ActualDuration == nil {
		next.ActualDuration = next.DurationMinutes()
	}
	next.UpdatedAt = s.Now()

	updated, err := s.repo.Update(ctx, next, current.Status, current.UpdatedAt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, loadErr := s.load(ctx, current.ID); errors.Is(loadErr, ErrNotFound) {
				return models.Appointment{}, ErrNotFound
			}
			return models.Appointment{}, ErrConcurrentUpdate
		}
		return models.Appointment{}, err
	}

	s.invalidate(ctx, current.Technician, current.Interval(), updated.Interval())
	s.notify(notifications.EventAppointmentUpdated, actor.ID, updated)
	return updated, nil
}

// Cancel marks the appointment canceled. Non-admin callers must cancel at least the
// configured notice period before the start.
func (s *Service) Cancel(ctx context.Context, actor auth.Identity, id, reason string) (appt models.Appointment, err error) {
	defer func() { s.record(opCancel, err) }()

	current, err := s.load(ctx, id)
	if err != nil {
		return models.Appointment{}, err
	}
	if !canAccess(actor, current) {
		return models.Appointment{}, ErrForbidden
	}
	if current.Status == models.AppointmentStatusCanceled {
		return models.Appointment{}, ErrAlreadyCanceled
	}

	now := s.Now()
	if !actor.IsAdmin() {
		if current.IsTerminal() {
			return models.Appointment{}, ErrImmutableState
		}
		if current.Status != models.AppointmentStatusScheduled {
			return models.Appointment{}, ErrInvalidTransition
		}
		if now.After(current.StartTime.Add(-s.cfg.CancellationNotice)) {
			return models.Appointment{}, ErrCancellationWindowExpired
		}
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = models.DefaultCancellationReason
	}

	updated, err := s.repo.Cancel(ctx, current.ID, reason, now, actor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Appointment{}, ErrAlreadyCanceled
		}
		return models.Appointment{}, err
	}

	s.invalidate(ctx, current.Technician, current.Interval())
	s.notify(notifications.EventAppointmentCanceled, actor.ID, updated)
	return updated, nil
}
