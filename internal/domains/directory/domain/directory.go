package domain

import (
	"time"

	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// Department is an organizational unit orders are attributed to.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Employee is a staff member that may place or handle orders.
type Employee struct {
	ID           int64         `json:"id"`
	NIK          string        `json:"nik"`
	Name         string        `json:"name"`
	DepartmentID *int64        `json:"departmentId,omitempty"`
	Role         identity.Role `json:"role"`
	Active       bool          `json:"active"`
}

// HasDepartment reports whether the employee is assigned to a department.
func (e *Employee) HasDepartment() bool {
	return e != nil && e.DepartmentID != nil
}

// Shift is a meal service window.
type Shift struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}
