// Package identity holds the actor model shared by the HTTP, realtime and
// domain layers.
package identity

import "fmt"

// Role is the access role asserted by a verified credential.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEmployee      Role = "employee"
	RoleKitchen       Role = "kitchen"
	RoleDelivery      Role = "delivery"
)

// Roles lists every known role in a stable order.
var Roles = []Role{RoleAdministrator, RoleEmployee, RoleKitchen, RoleDelivery}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleEmployee, RoleKitchen, RoleDelivery:
		return true
	default:
		return false
	}
}

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Actor is the verified caller of an operation.
type Actor struct {
	SubjectID  int64
	EmployeeID int64
	NIK        string
	Role       Role
}

// Is reports whether the actor holds role.
func (a Actor) Is(role Role) bool {
	return a.Role == role
}
