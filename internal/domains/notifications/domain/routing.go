// Package domain describes who receives which order lifecycle push.
package domain

import (
	orderdomain "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// Route resolves the channels an event is pushed to. The result is
// de-duplicated and keeps table order.
func Route(event orderdomain.Event) []string {
	admins := RoleChannel(identity.RoleAdministrator)
	switch e := event.(type) {
	case orderdomain.OrderCreated:
		return dedupe([]string{
			DeptRoleChannel(e.DepartmentID, identity.RoleKitchen),
			admins,
		})
	case orderdomain.OrderStatusChanged:
		return dedupe(append(statusChannels(e), EmployeeChannel(e.RequesterID)))
	case orderdomain.OrderApprovalRequested:
		return dedupe([]string{
			admins,
			DeptRoleChannel(e.DepartmentID, identity.RoleAdministrator),
			EmployeeChannel(e.RequesterID),
		})
	case orderdomain.OrderApprovalDecided:
		return dedupe([]string{
			DeptRoleChannel(e.DepartmentID, identity.RoleKitchen),
			admins,
			EmployeeChannel(e.RequestedBy),
		})
	}
	return nil
}

func statusChannels(e orderdomain.OrderStatusChanged) []string {
	kitchen := DeptRoleChannel(e.DepartmentID, identity.RoleKitchen)
	delivery := DeptRoleChannel(e.DepartmentID, identity.RoleDelivery)
	switch e.NewStatus {
	case orderdomain.StatusWaiting, orderdomain.StatusInProgress:
		return []string{kitchen}
	case orderdomain.StatusReady:
		return []string{kitchen, delivery}
	case orderdomain.StatusOnDelivery:
		return []string{delivery}
	default:
		return []string{RoleChannel(identity.RoleAdministrator)}
	}
}
