package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/go-gin-meal-orders/internal/platform/temporal/activities/orders"
)

// RunOrderPlacementSequence executes the activities needed to place an order.
func RunOrderPlacementSequence(ctx workflow.Context, input orderactivities.PlaceOrderInput) (*types.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	employeeID := input.Actor.EmployeeID
	logger.Info("order placement sequence started", "employeeId", employeeID)
	placeOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: orderactivities.NonRetryableErrorTypes,
		},
	}

	var projection types.OrderProjection
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, placeOptions), orderactivities.PlaceOrderActivityName, input).Get(ctx, &projection)
	if err != nil {
		logger.Error("order placement sequence failed", "employeeId", employeeID, "error", err)
		return nil, err
	}
	if projection.Entity != nil {
		logger.Info("order placement sequence persisted", "orderId", projection.Entity.ID, "code", projection.Entity.Code)
	}
	return &projection, nil
}
