package domain

import (
	"fmt"

	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// RoleChannel reaches every connection of role.
func RoleChannel(role identity.Role) string {
	return "role:" + string(role)
}

// UserChannel reaches the connections of one credential subject.
func UserChannel(subjectID int64) string {
	return fmt.Sprintf("user:%d", subjectID)
}

// EmployeeChannel reaches the connections of one employee.
func EmployeeChannel(employeeID int64) string {
	return fmt.Sprintf("employee:%d", employeeID)
}

// DeptChannel reaches every connection that declared departmentID.
func DeptChannel(departmentID int64) string {
	return fmt.Sprintf("dept:%d", departmentID)
}

// DeptRoleChannel reaches connections of role that declared departmentID.
func DeptRoleChannel(departmentID int64, role identity.Role) string {
	return fmt.Sprintf("dept:%d:role:%s", departmentID, role)
}
