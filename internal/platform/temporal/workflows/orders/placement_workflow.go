package orders

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/go-gin-meal-orders/internal/platform/temporal/activities/orders"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/temporal/sequences"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

const (
	// OrderPlacementWorkflowName is the public identifier for registering the workflow.
	OrderPlacementWorkflowName = "orders.workflows.Placement"
	// OrderPlacementTaskQueue is the queue consumed by the worker processing order workflows.
	OrderPlacementTaskQueue = "ORDER_PLACEMENT"
)

// OrderPlacementWorkflowInput captures the caller and payload of a new order.
type OrderPlacementWorkflowInput struct {
	Actor   identity.Actor
	Command types.CreateOrderInput
	TraceID string
}

// OrderPlacementWorkflow places an order on behalf of an employee.
func OrderPlacementWorkflow(ctx workflow.Context, input OrderPlacementWorkflowInput) (*types.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	employeeID := input.Actor.EmployeeID
	logger.Info("OrderPlacementWorkflow started", withTraceID(input.TraceID, "employeeId", employeeID)...)
	projection, err := sequences.RunOrderPlacementSequence(ctx, orderactivities.PlaceOrderInput{Actor: input.Actor, Command: input.Command})
	if err != nil {
		logger.Error("OrderPlacementWorkflow failed", withTraceID(input.TraceID, "employeeId", employeeID, "error", err)...)
		return nil, err
	}
	if projection.Entity != nil {
		logger.Info("OrderPlacementWorkflow completed", withTraceID(input.TraceID, "orderId", projection.Entity.ID)...)
	} else {
		logger.Info("OrderPlacementWorkflow completed", withTraceID(input.TraceID)...)
	}
	return projection, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
