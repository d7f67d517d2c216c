// README: User record (drivers and administrators).
package user

import (
	"time"

	"navette/internal/types"
)

type User struct {
	ID           types.ID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         types.Role
	CompanyID    types.ID
	CreatedAt    time.Time
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
