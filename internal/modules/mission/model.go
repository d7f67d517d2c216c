// README: Mission aggregate, status definitions, and the transition table.
package mission

import (
	"time"

	"navette/internal/types"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

type Mission struct {
	ID          types.ID
	Title       string
	Description string
	Status      Status

	// Route.
	DepartureName        string
	DepartureAddress     string
	Departure            types.Point
	ArrivalName          string
	ArrivalAddress       string
	Arrival              types.Point
	ScheduledDepartureAt time.Time
	EstimatedArrivalAt   *time.Time
	ActualDepartureAt    *time.Time
	ActualArrivalAt      *time.Time
	RoutePolyline        *string
	DistanceKm           *float64
	EstimatedDurationMin *int

	// Capacity.
	MaxPassengers     int
	CurrentPassengers int

	// Assignment.
	DriverID  *types.ID
	CompanyID types.ID
	VehicleID *types.ID

	// Kilometrage readings, populated phase by phase. A later reading
	// is never present without every earlier one.
	KmDepotStart   *float64
	KmMissionStart *float64
	KmMissionEnd   *float64
	KmDepotEnd     *float64

	// Derived distances, recomputed on each kilometrage update.
	DistanceDepotToMission *float64
	DistanceMissionOnly    *float64
	DistanceDepotToDepot   *float64

	// Work-time record, set independently of kilometrage.
	DrivingTimeMin     *int
	RestTimeMin        *int
	WaitingTimeMin     *int
	DrivingTimeComment *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllowedTransitions represents the mission state flow as code. Cancel
// and the administrative overrides are handled separately: cancel is
// legal from any non-terminal state, and overrides bypass the table.
var AllowedTransitions = map[Status][]Status{
	StatusPending: {StatusAssigned, StatusInProgress, StatusCancelled},
	// Assigned → Assigned is the driver's accept: confirmation does not
	// advance the status. Assigned → Pending is the driver's refusal.
	StatusAssigned:   {StatusAssigned, StatusPending, StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (st Status) Terminal() bool {
	return st == StatusCompleted || st == StatusCancelled
}

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the mission should appear in active views.
func (m *Mission) Active() bool {
	return !m.Status.Terminal()
}
