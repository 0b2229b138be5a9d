package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

var (
	_ ports.Directory = (*Directory)(nil)
	_ ports.Writer    = (*Directory)(nil)
)

// Directory reads reference data from PostgreSQL using GORM.
type Directory struct {
	db *gorm.DB
}

// NewDirectory wires a PostgreSQL-backed directory. Schema is owned by the
// migrations package.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

type departmentRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;size:128"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (departmentRecord) TableName() string { return "departments" }

type employeeRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	NIK          string    `gorm:"column:nik;size:32;uniqueIndex"`
	Name         string    `gorm:"column:name;size:128"`
	DepartmentID *int64    `gorm:"column:department_id;index"`
	Role         string    `gorm:"column:role;type:varchar(32)"`
	Active       bool      `gorm:"column:active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (employeeRecord) TableName() string { return "employees" }

type shiftRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Name         string    `gorm:"column:name;size:64"`
	StartMinutes int       `gorm:"column:start_minutes"`
	EndMinutes   int       `gorm:"column:end_minutes"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (shiftRecord) TableName() string { return "shifts" }

func (d *Directory) Employee(ctx context.Context, id int64) (*domain.Employee, error) {
	var rec employeeRecord
	if err := d.take(ctx, &rec, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &domain.Employee{
		ID:           rec.ID,
		NIK:          rec.NIK,
		Name:         rec.Name,
		DepartmentID: rec.DepartmentID,
		Role:         identity.Role(rec.Role),
		Active:       rec.Active,
	}, nil
}

func (d *Directory) Shift(ctx context.Context, id int64) (*domain.Shift, error) {
	var rec shiftRecord
	if err := d.take(ctx, &rec, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrShiftNotFound
		}
		return nil, err
	}
	return &domain.Shift{
		ID:    rec.ID,
		Name:  rec.Name,
		Start: time.Duration(rec.StartMinutes) * time.Minute,
		End:   time.Duration(rec.EndMinutes) * time.Minute,
	}, nil
}

func (d *Directory) Department(ctx context.Context, id int64) (*domain.Department, error) {
	var rec departmentRecord
	if err := d.take(ctx, &rec, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &domain.Department{ID: rec.ID, Name: rec.Name}, nil
}

func (d *Directory) SaveDepartment(ctx context.Context, department domain.Department) error {
	return d.upsert(ctx, &departmentRecord{ID: department.ID, Name: department.Name})
}

func (d *Directory) SaveEmployee(ctx context.Context, employee domain.Employee) error {
	return d.upsert(ctx, &employeeRecord{
		ID:           employee.ID,
		NIK:          employee.NIK,
		Name:         employee.Name,
		DepartmentID: employee.DepartmentID,
		Role:         string(employee.Role),
		Active:       employee.Active,
	})
}

func (d *Directory) SaveShift(ctx context.Context, shift domain.Shift) error {
	return d.upsert(ctx, &shiftRecord{
		ID:           shift.ID,
		Name:         shift.Name,
		StartMinutes: int(shift.Start / time.Minute),
		EndMinutes:   int(shift.End / time.Minute),
	})
}

func (d *Directory) take(ctx context.Context, dest interface{}, id int64) error {
	if err := d.ensureDB(); err != nil {
		return err
	}
	return d.db.WithContext(ctx).Where("id = ?", id).Take(dest).Error
}

func (d *Directory) upsert(ctx context.Context, rec interface{}) error {
	if err := d.ensureDB(); err != nil {
		return err
	}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(rec).Error
}

func (d *Directory) ensureDB() error {
	if d == nil || d.db == nil {
		return errors.New("postgres directory not configured")
	}
	return nil
}
