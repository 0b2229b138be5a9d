package ports

import (
	"context"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// WorkflowOrchestrator runs order placement, durably when available.
type WorkflowOrchestrator interface {
	PlaceOrder(ctx context.Context, actor identity.Actor, input types.CreateOrderInput) (*types.OrderProjection, error)
}
