// README: Company record referenced by missions and users.
package company

import (
	"time"

	"navette/internal/types"
)

type Company struct {
	ID        types.ID
	Name      string
	Address   string
	Phone     string
	CreatedAt time.Time
}
