package ports

import (
	"context"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// Service exposes the order lifecycle use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, actor identity.Actor, input types.CreateOrderInput) (*types.OrderProjection, error)
	ListOrders(ctx context.Context, actor identity.Actor, input types.ListOrdersInput) (*types.OrderPage, error)
	GetOrder(ctx context.Context, actor identity.Actor, id int64) (*types.OrderProjection, error)
	UpdateStatus(ctx context.Context, actor identity.Actor, input types.UpdateStatusInput) (*types.OrderProjection, error)
	RequestRejection(ctx context.Context, actor identity.Actor, input types.RejectionInput) (*types.OrderProjection, error)
	RequestEdit(ctx context.Context, actor identity.Actor, input types.EditInput) (*types.OrderProjection, error)
	DecideApproval(ctx context.Context, actor identity.Actor, input types.DecisionInput) (*types.OrderProjection, error)
	PendingApprovals(ctx context.Context, actor identity.Actor) ([]*types.OrderProjection, error)
}
