// README: Notification record and event type definitions.
package notification

import (
	"time"

	"navette/internal/types"
)

type Type string

const (
	TypeMissionAssigned            Type = "MISSION_ASSIGNED"
	TypeMissionRemoved             Type = "MISSION_REMOVED"
	TypeMissionUpdated             Type = "MISSION_UPDATED"
	TypeMissionPendingConfirmation Type = "MISSION_PENDING_CONFIRMATION"
	TypeMissionAccepted            Type = "MISSION_ACCEPTED"
	TypeMissionRefused             Type = "MISSION_REFUSED"
)

type Notification struct {
	ID      types.ID
	UserID  types.ID
	Type    Type
	Title   string
	Message string

	// Denormalized for display; the mission reference is weak.
	MissionID    types.ID
	MissionTitle string

	IsRead bool

	// RequiresAction is true only for a pending-confirmation notice
	// that has not been answered yet.
	RequiresAction bool

	CreatedAt time.Time
}
