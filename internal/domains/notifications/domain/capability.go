package domain

import (
	"slices"

	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// Capability is what a realtime connection is entitled to receive. It is
// computed once at handshake and never changes for the connection lifetime.
type Capability struct {
	connectionID string
	actor        identity.Actor
	departmentID *int64
	channels     []string
}

// NewCapability derives the channel set of a verified actor. The department
// hint is optional because credentials do not carry a department.
func NewCapability(connectionID string, actor identity.Actor, departmentHint *int64) Capability {
	channels := []string{
		RoleChannel(actor.Role),
		UserChannel(actor.SubjectID),
		EmployeeChannel(actor.EmployeeID),
	}
	var dept *int64
	if departmentHint != nil {
		id := *departmentHint
		dept = &id
		channels = append(channels, DeptChannel(id), DeptRoleChannel(id, actor.Role))
	}
	return Capability{
		connectionID: connectionID,
		actor:        actor,
		departmentID: dept,
		channels:     dedupe(channels),
	}
}

func (c Capability) ConnectionID() string { return c.connectionID }

func (c Capability) Actor() identity.Actor { return c.actor }

// DepartmentID returns a copy of the department hint, nil when none was given.
func (c Capability) DepartmentID() *int64 {
	if c.departmentID == nil {
		return nil
	}
	id := *c.departmentID
	return &id
}

// Channels returns a copy of the joined channel set.
func (c Capability) Channels() []string {
	return slices.Clone(c.channels)
}

func dedupe(channels []string) []string {
	seen := make(map[string]struct{}, len(channels))
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}
