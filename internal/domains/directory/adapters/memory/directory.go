package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/ports"
)

var (
	_ ports.Directory = (*Directory)(nil)
	_ ports.Writer    = (*Directory)(nil)
)

// Directory keeps reference data in process memory.
type Directory struct {
	mu          sync.RWMutex
	departments map[int64]domain.Department
	employees   map[int64]domain.Employee
	shifts      map[int64]domain.Shift
}

func NewDirectory() *Directory {
	return &Directory{
		departments: map[int64]domain.Department{},
		employees:   map[int64]domain.Employee{},
		shifts:      map[int64]domain.Shift{},
	}
}

func (d *Directory) Employee(_ context.Context, id int64) (*domain.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	employee, ok := d.employees[id]
	if !ok {
		return nil, ports.ErrEmployeeNotFound
	}
	if employee.DepartmentID != nil {
		dept := *employee.DepartmentID
		employee.DepartmentID = &dept
	}
	return &employee, nil
}

func (d *Directory) Shift(_ context.Context, id int64) (*domain.Shift, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	shift, ok := d.shifts[id]
	if !ok {
		return nil, ports.ErrShiftNotFound
	}
	return &shift, nil
}

func (d *Directory) Department(_ context.Context, id int64) (*domain.Department, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	department, ok := d.departments[id]
	if !ok {
		return nil, ports.ErrDepartmentNotFound
	}
	return &department, nil
}

func (d *Directory) SaveDepartment(_ context.Context, department domain.Department) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.departments[department.ID] = department
	return nil
}

func (d *Directory) SaveEmployee(_ context.Context, employee domain.Employee) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if employee.DepartmentID != nil {
		dept := *employee.DepartmentID
		employee.DepartmentID = &dept
	}
	d.employees[employee.ID] = employee
	return nil
}

func (d *Directory) SaveShift(_ context.Context, shift domain.Shift) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shifts[shift.ID] = shift
	return nil
}
