package ports

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict is returned when a guarded update finds the row changed.
	ErrConflict = errors.New("order was modified concurrently")
	// ErrDuplicateCode is returned when the order code is already taken.
	ErrDuplicateCode = errors.New("order code already exists")
)

// Guard is the state a conditional update expects to find in storage.
type Guard struct {
	Status         domain.Status
	ApprovalStatus *domain.ApprovalStatus
}

// GuardFor captures the current state of order.
func GuardFor(order *domain.Order) Guard {
	g := Guard{Status: order.Status}
	if order.ApprovalStatus != nil {
		v := *order.ApprovalStatus
		g.ApprovalStatus = &v
	}
	return g
}

// Matches reports whether order is still in the guarded state.
func (g Guard) Matches(order *domain.Order) bool {
	if order.Status != g.Status {
		return false
	}
	switch {
	case g.ApprovalStatus == nil && order.ApprovalStatus == nil:
		return true
	case g.ApprovalStatus == nil || order.ApprovalStatus == nil:
		return false
	default:
		return *g.ApprovalStatus == *order.ApprovalStatus
	}
}

// ListQuery is the store-level filter. Every set field is AND-combined.
type ListQuery struct {
	// Statuses restricts to a status set (role scope).
	Statuses         []domain.Status
	RequesterID      *int64
	Status           *domain.Status
	DepartmentID     *int64
	ShiftID          *int64
	From             *time.Time
	To               *time.Time
	RequiresApproval *bool
	ApprovalStatus   *domain.ApprovalStatus
	Offset           int
	Limit            int
}

// Matches evaluates the filter part of the query against order in memory.
func (q ListQuery) Matches(order *domain.Order) bool {
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, order.Status) {
		return false
	}
	if q.RequesterID != nil && order.RequesterEmployeeID != *q.RequesterID {
		return false
	}
	if q.Status != nil && order.Status != *q.Status {
		return false
	}
	if q.DepartmentID != nil && order.DepartmentID != *q.DepartmentID {
		return false
	}
	if q.ShiftID != nil && order.ShiftID != *q.ShiftID {
		return false
	}
	if q.From != nil && order.OrderDate.Before(*q.From) {
		return false
	}
	if q.To != nil && order.OrderDate.After(*q.To) {
		return false
	}
	if q.RequiresApproval != nil && order.RequiresApproval != *q.RequiresApproval {
		return false
	}
	if q.ApprovalStatus != nil && (order.ApprovalStatus == nil || *order.ApprovalStatus != *q.ApprovalStatus) {
		return false
	}
	return true
}

// Repository persists orders.
type Repository interface {
	CountByDate(ctx context.Context, orderDate time.Time) (int64, error)
	Create(ctx context.Context, order *domain.Order) (*types.OrderProjection, error)
	GetByID(ctx context.Context, id int64) (*types.OrderProjection, error)
	Update(ctx context.Context, order *domain.Order, expect Guard) (*types.OrderProjection, error)
	List(ctx context.Context, query ListQuery) ([]*types.OrderProjection, int64, error)
}
