// README: Fleet vehicle record; mileage is the authoritative odometer value.
package vehicle

import (
	"time"

	"navette/internal/types"
)

type Vehicle struct {
	ID           types.ID
	Brand        string
	Model        string
	LicensePlate string
	FleetNumber  string

	// Mileage only ever grows. The kilometrage engine is the sole
	// internal writer, inside its own phase transactions.
	Mileage int64

	IsActive bool

	// Registration metadata, display-only.
	VIN               string
	FirstRegistration *time.Time
	EnginePowerKW     int
	FuelType          string
	SeatCount         int
	Category          string

	CreatedAt time.Time
}
