// README: Common value objects shared across modules.
package types

// ID is an opaque entity identifier.
type ID string

func (id ID) String() string { return string(id) }

// Role of an authenticated user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDriver Role = "driver"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}
