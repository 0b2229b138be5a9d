package domain

import "github.com/Apurer/go-gin-meal-orders/internal/shared/identity"

// AnyStatus matches every status in a Transition entry.
const AnyStatus Status = "*"

// Transition is one allowed edge of the lifecycle for a role.
type Transition struct {
	Role identity.Role
	From Status
	To   Status
}

// allowedTransitions is the role-gated lifecycle. Roles without entries
// (employee) cannot move orders at all.
var allowedTransitions = map[Transition]struct{}{
	{identity.RoleKitchen, StatusWaiting, StatusInProgress}:   {},
	{identity.RoleKitchen, StatusInProgress, StatusReady}:     {},
	{identity.RoleDelivery, StatusReady, StatusOnDelivery}:    {},
	{identity.RoleDelivery, StatusOnDelivery, StatusComplete}: {},
	{identity.RoleAdministrator, AnyStatus, AnyStatus}:        {},
}

// TransitionAllowed reports whether role may move an order from -> to.
func TransitionAllowed(role identity.Role, from, to Status) bool {
	candidates := [...]Transition{
		{role, from, to},
		{role, from, AnyStatus},
		{role, AnyStatus, to},
		{role, AnyStatus, AnyStatus},
	}
	for _, candidate := range candidates {
		if _, ok := allowedTransitions[candidate]; ok {
			return true
		}
	}
	return false
}

// AllowedTargets lists the statuses role may move an order in from into.
func AllowedTargets(role identity.Role, from Status) []Status {
	targets := make([]Status, 0, len(Statuses))
	for _, to := range Statuses {
		if to != from && TransitionAllowed(role, from, to) {
			targets = append(targets, to)
		}
	}
	return targets
}
