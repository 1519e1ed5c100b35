package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"dern-backend/internal/models"
	"dern-backend/internal/schedule"

	"go.mongodb.org/mongo-driver/mongo"
)

// Cached days are addressed through a generation key. A mutation replaces the
// generation instead of deleting the entry, so a read that loaded before the mutation
// can only write under the old generation, which no later read looks up.
const missingGeneration = "0"

func generationKey(technicianID, date string) string {
	return "availability:gen:" + technicianID + ":" + date
}

func availabilityKey(technicianID, date, generation string) string {
	return "availability:" + technicianID + ":" + date + ":" + generation
}

func (s *Service) generationTTL() time.Duration {
	return 2*s.cfg.CacheTTL + time.Minute
}

// ComputeAvailableSlots splits workingHours into booked and free slots for the UTC day
// named by date (YYYY-MM-DD). A nil workingHours uses the configured hours.
func (s *Service) ComputeAvailableSlots(ctx context.Context, technicianID, date string, workingHours []string) (Availability, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveAvailability(time.Since(started)) }()

	if workingHours == nil {
		workingHours = s.cfg.WorkingHours
	}
	if err := schedule.ValidateWorkingHours(workingHours); err != nil {
		return Availability{}, err
	}

	day, err := schedule.ParseDate(date, time.UTC)
	if err != nil {
		return Availability{}, err
	}
	dayStart, dayEnd := schedule.DayBounds(day)

	tech, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Availability{}, ErrTechnicianNotFound
		}
		return Availability{}, err
	}
	if !tech.IsTechnician() || !tech.IsActive {
		return Availability{}, ErrTechnicianNotFound
	}
	if tech.Availability != models.AvailabilityAvailable {
		return Availability{}, ErrTechnicianUnavailable
	}

	busy, err := s.busyIntervals(ctx, technicianID, dayStart, dayEnd)
	if err != nil {
		return Availability{}, err
	}

	booked, available, err := schedule.BookedSlots(workingHours, dayStart, busy)
	if err != nil {
		return Availability{}, err
	}

	return Availability{
		TechnicianID:   technicianID,
		Date:           dayStart.Format(schedule.DateLayout),
		WorkingHours:   workingHours,
		BookedSlots:    booked,
		AvailableSlots: available,
	}, nil
}

// busyIntervals loads the day's blocking intervals, going through the cache first.
func (s *Service) busyIntervals(ctx context.Context, technicianID string, dayStart, dayEnd time.Time) ([]schedule.Interval, error) {
	date := dayStart.Format(schedule.DateLayout)

	key := ""
	generation, ok, err := s.cache.Get(ctx, generationKey(technicianID, date))
	switch {
	case err != nil:
		s.log.Warn("availability cache: get generation failed", slog.String("technician_id", technicianID), slog.String("error", err.Error()))
	case ok:
		key = availabilityKey(technicianID, date, string(generation))
	default:
		key = availabilityKey(technicianID, date, missingGeneration)
	}

	if key != "" {
		if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var busy []schedule.Interval
			if err := json.Unmarshal(cached, &busy); err == nil {
				return busy, nil
			}
		} else if err != nil {
			s.log.Warn("availability cache: get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	appts, err := s.repo.ListByTechnicianInRange(ctx, technicianID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	busy := make([]schedule.Interval, 0, len(appts))
	for _, appt := range appts {
		busy = append(busy, appt.Interval())
	}

	if key == "" {
		return busy, nil
	}
	if payload, err := json.Marshal(busy); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.cfg.CacheTTL); err != nil {
			s.log.Warn("availability cache: set failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return busy, nil
}
