package appointments

import (
	"context"
	"errors"

	"dern-backend/internal/models"
	"dern-backend/internal/schedule"

	"go.mongodb.org/mongo-driver/mongo"
)

// CheckAvailability verifies that the technician can take iv. It returns the technician
// on success, ErrTechnicianUnavailable when the technician cannot be booked at all and a
// *ConflictError naming the first overlapping appointment otherwise. excludeID leaves an
// appointment out of the comparison so that it can be moved without clashing with itself.
// Nothing is written.
func (s *Service) CheckAvailability(ctx context.Context, technicianID string, iv schedule.Interval, excludeID string) (models.User, error) {
	if !iv.Valid() {
		return models.User{}, ErrInvalidInterval
	}

	tech, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrTechnicianUnavailable
		}
		return models.User{}, err
	}
	if !tech.Bookable() {
		return models.User{}, ErrTechnicianUnavailable
	}

	existing, err := s.repo.ListActiveByTechnician(ctx, technicianID, excludeID)
	if err != nil {
		return models.User{}, err
	}
	for _, appt := range existing {
		if appt.ID == excludeID && excludeID != "" {
			continue
		}
		if schedule.Overlaps(iv, appt.Interval()) {
			return models.User{}, &ConflictError{AppointmentID: appt.ID, Interval: appt.Interval()}
		}
	}
	return tech, nil
}
