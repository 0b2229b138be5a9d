package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	directoryredis "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/adapters/cache/redis"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/auth"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

const clockLayout = "15:04"

type departmentFixture struct {
	ID   int64  `yaml:"id" validate:"required,gt=0"`
	Name string `yaml:"name" validate:"required"`
}

type shiftFixture struct {
	ID    int64  `yaml:"id" validate:"required,gt=0"`
	Name  string `yaml:"name" validate:"required"`
	Start string `yaml:"start" validate:"required"`
	End   string `yaml:"end" validate:"required"`
}

type employeeFixture struct {
	ID           int64  `yaml:"id" validate:"required,gt=0"`
	NIK          string `yaml:"nik" validate:"required"`
	Name         string `yaml:"name" validate:"required"`
	Role         string `yaml:"role" validate:"required,oneof=administrator employee kitchen delivery"`
	DepartmentID *int64 `yaml:"departmentId" validate:"omitempty,gt=0"`
	Inactive     bool   `yaml:"inactive"`
}

type fixtureSet struct {
	Departments []departmentFixture `yaml:"departments" validate:"dive"`
	Shifts      []shiftFixture      `yaml:"shifts" validate:"dive"`
	Employees   []employeeFixture   `yaml:"employees" validate:"dive"`
}

func parseFixtures(raw []byte) (*fixtureSet, error) {
	var set fixtureSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := validator.New().Struct(set); err != nil {
		return nil, err
	}
	departments := map[int64]struct{}{}
	for _, d := range set.Departments {
		departments[d.ID] = struct{}{}
	}
	for _, e := range set.Employees {
		if e.DepartmentID == nil {
			continue
		}
		if _, ok := departments[*e.DepartmentID]; !ok {
			return nil, fmt.Errorf("employee %s references unknown department %d", e.NIK, *e.DepartmentID)
		}
	}
	for _, s := range set.Shifts {
		if _, err := clockOffset(s.Start); err != nil {
			return nil, fmt.Errorf("shift %d start: %w", s.ID, err)
		}
		if _, err := clockOffset(s.End); err != nil {
			return nil, fmt.Errorf("shift %d end: %w", s.ID, err)
		}
	}
	return &set, nil
}

func (s *fixtureSet) apply(ctx context.Context, w ports.Writer) error {
	for _, d := range s.Departments {
		if err := w.SaveDepartment(ctx, domain.Department{ID: d.ID, Name: d.Name}); err != nil {
			return fmt.Errorf("department %d: %w", d.ID, err)
		}
	}
	for _, sh := range s.Shifts {
		start, _ := clockOffset(sh.Start)
		end, _ := clockOffset(sh.End)
		if err := w.SaveShift(ctx, domain.Shift{ID: sh.ID, Name: sh.Name, Start: start, End: end}); err != nil {
			return fmt.Errorf("shift %d: %w", sh.ID, err)
		}
	}
	for _, e := range s.Employees {
		employee := domain.Employee{
			ID:           e.ID,
			NIK:          e.NIK,
			Name:         e.Name,
			DepartmentID: e.DepartmentID,
			Role:         identity.Role(e.Role),
			Active:       !e.Inactive,
		}
		if err := w.SaveEmployee(ctx, employee); err != nil {
			return fmt.Errorf("employee %s: %w", e.NIK, err)
		}
	}
	return nil
}

func (s *fixtureSet) invalidate(ctx context.Context, cache *directoryredis.Directory) error {
	ids := func(n int, at func(int) int64) []int64 {
		out := make([]int64, n)
		for i := range out {
			out[i] = at(i)
		}
		return out
	}
	if err := cache.Invalidate(ctx, directoryredis.KindDepartment, ids(len(s.Departments), func(i int) int64 { return s.Departments[i].ID })...); err != nil {
		return err
	}
	if err := cache.Invalidate(ctx, directoryredis.KindShift, ids(len(s.Shifts), func(i int) int64 { return s.Shifts[i].ID })...); err != nil {
		return err
	}
	return cache.Invalidate(ctx, directoryredis.KindEmployee, ids(len(s.Employees), func(i int) int64 { return s.Employees[i].ID })...)
}

// claims returns one token payload per active employee. The employee id
// doubles as the subject.
func (s *fixtureSet) claims() []auth.Claims {
	out := make([]auth.Claims, 0, len(s.Employees))
	for _, e := range s.Employees {
		if e.Inactive {
			continue
		}
		out = append(out, auth.Claims{Subject: e.ID, EmployeeID: e.ID, NIK: e.NIK, Role: identity.Role(e.Role)})
	}
	return out
}

func clockOffset(raw string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
