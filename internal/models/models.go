package models

import (
	"time"

	"dern-backend/internal/schedule"
)

const (
	UserRoleCustomer   = "customer"
	UserRoleTechnician = "technician"
	UserRoleAdmin      = "admin"

	AvailabilityAvailable = "available"
	AvailabilityBusy      = "busy"
	AvailabilityOffline   = "offline"

	AppointmentStatusScheduled  = "scheduled"
	AppointmentStatusInProgress = "in-progress"
	AppointmentStatusCompleted  = "completed"
	AppointmentStatusCanceled   = "canceled"
	AppointmentStatusNoShow     = "no-show"

	ServiceConsultation    = "consultation"
	ServiceRepair          = "repair"
	ServiceInstallation    = "installation"
	ServiceMaintenance     = "maintenance"
	ServiceTroubleshooting = "troubleshooting"
	ServiceEmergency       = "emergency"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"

	DefaultCancellationReason = "No reason provided"
)

var validStatuses = map[string]struct{}{
	AppointmentStatusScheduled:  {},
	AppointmentStatusInProgress: {},
	AppointmentStatusCompleted:  {},
	AppointmentStatusCanceled:   {},
	AppointmentStatusNoShow:     {},
}

var terminalStatuses = map[string]struct{}{
	AppointmentStatusCompleted: {},
	AppointmentStatusCanceled:  {},
	AppointmentStatusNoShow:    {},
}

var validServiceTypes = map[string]struct{}{
	ServiceConsultation:    {},
	ServiceRepair:          {},
	ServiceInstallation:    {},
	ServiceMaintenance:     {},
	ServiceTroubleshooting: {},
	ServiceEmergency:       {},
}

var validPriorities = map[string]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
	PriorityUrgent: {},
}

var validAvailability = map[string]struct{}{
	AvailabilityAvailable: {},
	AvailabilityBusy:      {},
	AvailabilityOffline:   {},
}

// InactiveStatuses are the statuses whose appointments never block a technician's time.
var InactiveStatuses = []string{AppointmentStatusCanceled, AppointmentStatusCompleted}

// BlocksTime reports whether an appointment in status occupies its technician's time.
func BlocksTime(status string) bool {
	for _, s := range InactiveStatuses {
		if s == status {
			return false
		}
	}
	return true
}

func IsValidStatus(value string) bool {
	_, ok := validStatuses[value]
	return ok
}

func IsTerminalStatus(value string) bool {
	_, ok := terminalStatuses[value]
	return ok
}

func IsValidServiceType(value string) bool {
	_, ok := validServiceTypes[value]
	return ok
}

func IsValidPriority(value string) bool {
	_, ok := validPriorities[value]
	return ok
}

func IsValidAvailability(value string) bool {
	_, ok := validAvailability[value]
	return ok
}

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	IsActive     bool      `bson:"isActive" json:"isActive"`
	Availability string    `bson:"availability,omitempty" json:"availability,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u User) IsTechnician() bool {
	return u.Role == UserRoleTechnician
}

// Bookable reports whether new appointments may be placed on this technician.
func (u User) Bookable() bool {
	return u.IsTechnician() && u.IsActive && u.Availability == AvailabilityAvailable
}

type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `bson:"longitude" json:"longitude" validate:"gte=-180,lte=180"`
}

type Location struct {
	Street      string       `bson:"street,omitempty" json:"street,omitempty"`
	City        string       `bson:"city,omitempty" json:"city,omitempty"`
	State       string       `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode     string       `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Country     string       `bson:"country,omitempty" json:"country,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty" validate:"omitempty"`
}

type Appointment struct {
	ID                 string     `bson:"_id,omitempty" json:"id"`
	Client             string     `bson:"client" json:"client"`
	Technician         string     `bson:"technician" json:"technician"`
	StartTime          time.Time  `bson:"startTime" json:"startTime"`
	EndTime            time.Time  `bson:"endTime" json:"endTime"`
	Status             string     `bson:"status" json:"status"`
	ServiceType        string     `bson:"serviceType" json:"serviceType"`
	Priority           string     `bson:"priority" json:"priority"`
	EstimatedDuration  int        `bson:"estimatedDuration" json:"estimatedDuration"`
	ActualDuration     int        `bson:"actualDuration,omitempty" json:"actualDuration,omitempty"`
	Notes              string     `bson:"notes,omitempty" json:"notes,omitempty"`
	Location           *Location  `bson:"location,omitempty" json:"location,omitempty"`
	CancellationReason string     `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	CanceledAt         *time.Time `bson:"canceledAt,omitempty" json:"canceledAt,omitempty"`
	CanceledBy         string     `bson:"canceledBy,omitempty" json:"canceledBy,omitempty"`
	CreatedAt          time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (a Appointment) Interval() schedule.Interval {
	return schedule.Interval{Start: a.StartTime, End: a.EndTime}
}

func (a Appointment) DurationMinutes() int {
	return a.Interval().Minutes()
}

func (a Appointment) IsUpcoming(now time.Time) bool {
	return a.StartTime.After(now) && a.Status == AppointmentStatusScheduled
}

func (a Appointment) IsOverdue(now time.Time) bool {
	return a.EndTime.Before(now) && a.Status == AppointmentStatusScheduled
}

func (a Appointment) IsTerminal() bool {
	return IsTerminalStatus(a.Status)
}

func (a Appointment) HasParticipant(userID string) bool {
	return userID != "" && (a.Client == userID || a.Technician == userID)
}
