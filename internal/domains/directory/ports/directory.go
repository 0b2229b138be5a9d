package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
)

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrShiftNotFound      = errors.New("shift not found")
	ErrDepartmentNotFound = errors.New("department not found")
)

// Directory resolves reference data needed by the order lifecycle.
type Directory interface {
	Employee(ctx context.Context, id int64) (*domain.Employee, error)
	Shift(ctx context.Context, id int64) (*domain.Shift, error)
	Department(ctx context.Context, id int64) (*domain.Department, error)
}

// Writer stores reference data. Used by the seeder and tests.
type Writer interface {
	SaveDepartment(ctx context.Context, department domain.Department) error
	SaveEmployee(ctx context.Context, employee domain.Employee) error
	SaveShift(ctx context.Context, shift domain.Shift) error
}
