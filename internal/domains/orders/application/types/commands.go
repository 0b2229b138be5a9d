package types

import (
	"math"
	"time"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
)

// Paging defaults for order listings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// CreateOrderInput carries the payload of a new order.
type CreateOrderInput struct {
	ShiftID   int64
	Quantity  int
	OrderDate *time.Time
	// IdempotencyKey lets retried placements share one workflow run.
	IdempotencyKey string
}

// ListOrdersInput carries caller supplied filters.
type ListOrdersInput struct {
	Status           *domain.Status
	DepartmentID     *int64
	ShiftID          *int64
	From             *time.Time
	To               *time.Time
	RequiresApproval *bool
	Page             int
	Limit            int
}

// Normalize applies paging defaults. Page is capped so the row offset
// (Page-1)*Limit stays within int.
func (in ListOrdersInput) Normalize() ListOrdersInput {
	if in.Page < 1 {
		in.Page = DefaultPage
	}
	if in.Limit < 1 {
		in.Limit = DefaultLimit
	}
	if in.Limit > MaxLimit {
		in.Limit = MaxLimit
	}
	if maxPage := math.MaxInt / in.Limit; in.Page > maxPage {
		in.Page = maxPage
	}
	return in
}

// UpdateStatusInput moves an order to Status.
type UpdateStatusInput struct {
	OrderID int64
	Status  domain.Status
}

// RejectionInput opens a rejection episode.
type RejectionInput struct {
	OrderID int64
	Note    string
}

// EditInput opens a quantity edit episode.
type EditInput struct {
	OrderID     int64
	NewQuantity int
	Note        string
}

// DecisionInput closes an episode.
type DecisionInput struct {
	OrderID  int64
	Decision domain.ApprovalStatus
	Note     *string
}
