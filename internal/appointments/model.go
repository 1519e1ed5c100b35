package appointments

import (
	"time"

	"dern-backend/internal/models"
)

type CreateRequest struct {
	ClientID          string           `json:"clientId" validate:"omitempty,objectid"`
	TechnicianID      string           `json:"technicianId" validate:"required,objectid"`
	StartTime         time.Time        `json:"startTime" validate:"required"`
	EndTime           time.Time        `json:"endTime" validate:"required"`
	ServiceType       string           `json:"serviceType" validate:"required,servicetype"`
	Priority          string           `json:"priority" validate:"omitempty,priority"`
	EstimatedDuration *int             `json:"estimatedDuration" validate:"omitempty,min=1"`
	Notes             string           `json:"notes" validate:"max=1000"`
	Location          *models.Location `json:"location"`
}

// UpdateRequest lists every field a caller may change. Fields left nil are untouched and
// anything not declared here is dropped while decoding.
type UpdateRequest struct {
	StartTime         *time.Time       `json:"startTime"`
	EndTime           *time.Time       `json:"endTime"`
	Status            *string          `json:"status" validate:"omitempty,apptstatus"`
	ServiceType       *string          `json:"serviceType" validate:"omitempty,servicetype"`
	Priority          *string          `json:"priority" validate:"omitempty,priority"`
	EstimatedDuration *int             `json:"estimatedDuration" validate:"omitempty,min=1"`
	ActualDuration    *int             `json:"actualDuration" validate:"omitempty,min=0"`
	Notes             *string          `json:"notes" validate:"omitempty,max=1000"`
	Location          *models.Location `json:"location"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type AvailabilityQuery struct {
	Date string `validate:"required,date"`
}

type ListFilter struct {
	// Participant restricts results to appointments where the user is client or technician.
	Participant string
	Technician  string
	Status      string
}

type Availability struct {
	TechnicianID   string   `json:"technicianId"`
	Date           string   `json:"date"`
	WorkingHours   []string `json:"workingHours"`
	BookedSlots    []string `json:"bookedSlots"`
	AvailableSlots []string `json:"availableSlots"`
}

// View is the API representation of an appointment with its derived fields.
type View struct {
	models.Appointment
	DurationMinutes int  `json:"durationMinutes"`
	IsUpcoming      bool `json:"isUpcoming"`
	IsOverdue       bool `json:"isOverdue"`
}

func NewView(appt models.Appointment, now time.Time) View {
	return View{
		Appointment:     appt,
		DurationMinutes: appt.DurationMinutes(),
		IsUpcoming:      appt.IsUpcoming(now),
		IsOverdue:       appt.IsOverdue(now),
	}
}
