package mapper

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/projection"
)

// Order is the HTTP representation of a meal order.
type Order struct {
	ID                   int64                  `json:"id"`
	Code                 string                 `json:"code"`
	RequesterEmployeeID  int64                  `json:"requesterEmployeeId"`
	DepartmentID         int64                  `json:"departmentId"`
	ShiftID              int64                  `json:"shiftId"`
	Quantity             int                    `json:"quantity"`
	OriginalQuantity     *int                   `json:"originalQuantity"`
	Status               domain.Status          `json:"status"`
	OrderDate            time.Time              `json:"orderDate"`
	RequiresApproval     bool                   `json:"requiresApproval"`
	ApprovalStatus       *domain.ApprovalStatus `json:"approvalStatus"`
	KitchenNote          *string                `json:"kitchenNote"`
	AdminNote            *string                `json:"adminNote"`
	ApprovedByEmployeeID *int64                 `json:"approvedByEmployeeId"`
	ProcessedAt          *time.Time             `json:"processedAt"`
	ReadyAt              *time.Time             `json:"readyAt"`
	DispatchedAt         *time.Time             `json:"dispatchedAt"`
	CompletedAt          *time.Time             `json:"completedAt"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
}

// OrderPage is one page of orders.
type OrderPage struct {
	Data       []Order `json:"data"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}

// FromProjection converts an application projection into the HTTP shape.
func FromProjection(p *types.OrderProjection) Order {
	if p == nil || p.Entity == nil {
		return Order{}
	}
	var out Order
	_ = copier.Copy(&out, p.Entity)
	out.CreatedAt = p.Metadata.CreatedAt
	out.UpdatedAt = p.Metadata.UpdatedAt
	return out
}

// FromProjectionList converts a list of projections.
func FromProjectionList(list []*types.OrderProjection) []Order {
	return projection.Map(list, FromProjection)
}

// FromPage converts a listing page.
func FromPage(page *types.OrderPage) OrderPage {
	if page == nil {
		return OrderPage{Data: []Order{}}
	}
	return OrderPage{
		Data:       FromProjectionList(page.Data),
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}
