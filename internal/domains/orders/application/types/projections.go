package types

import (
	"time"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/projection"
)

// OrderProjection transports an order together with its persistence metadata.
type OrderProjection = projection.Projection[*domain.Order]

// NewOrderProjection wraps an aggregate with persistence metadata.
func NewOrderProjection(order *domain.Order, createdAt, updatedAt time.Time) *OrderProjection {
	if order == nil {
		return nil
	}
	return projection.New(order, createdAt, updatedAt)
}

// CloneProjection deep-copies the wrapped order.
func CloneProjection(src *OrderProjection) *OrderProjection {
	if src == nil {
		return nil
	}
	return projection.New(src.Entity.Clone(), src.Metadata.CreatedAt, src.Metadata.UpdatedAt)
}

// OrderPage is one page of a filtered order listing.
type OrderPage struct {
	Data       []*OrderProjection
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}
