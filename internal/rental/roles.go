package rental

import (
	"github.com/tcw0/lendit-sub000/internal/models"
)

// Role is the acting user's position on a rental. It is derived per request
// and never stored.
type Role string

const (
	RoleRenter Role = "RENTER"
	RoleLender Role = "LENDER"
)

// ResolveRole maps the acting user onto the rental. The second return value
// is false when the user is neither renter nor lender.
func ResolveRole(userID uint, r *models.Rental) (Role, bool) {
	switch userID {
	case r.RenterID:
		return RoleRenter, true
	case r.LenderID:
		return RoleLender, true
	}
	return "", false
}
