package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// PlaceOrderActivityName persists a new order through the lifecycle service.
const PlaceOrderActivityName = "orders.activities.PlaceOrder"

// Application error types carried across the workflow boundary.
const (
	ErrorTypeNotFound     = "NotFound"
	ErrorTypeForbidden    = "Forbidden"
	ErrorTypeBadRequest   = "BadRequest"
	ErrorTypeConflict     = "Conflict"
	ErrorTypeUnauthorized = "Unauthorized"
)

// NonRetryableErrorTypes are failures a retry cannot fix.
var NonRetryableErrorTypes = []string{
	ErrorTypeNotFound,
	ErrorTypeForbidden,
	ErrorTypeBadRequest,
	ErrorTypeUnauthorized,
}

var categories = []struct {
	errType  string
	sentinel error
}{
	{ErrorTypeNotFound, application.ErrNotFound},
	{ErrorTypeForbidden, application.ErrForbidden},
	{ErrorTypeBadRequest, application.ErrBadRequest},
	{ErrorTypeConflict, application.ErrConflict},
	{ErrorTypeUnauthorized, application.ErrUnauthorized},
}

// PlaceOrderInput is the activity payload.
type PlaceOrderInput struct {
	Actor   identity.Actor
	Command types.CreateOrderInput
}

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ports.Service
}

// NewActivities wires the order lifecycle service into the activities bundle.
// The service should not publish realtime events; the API process does that
// once the workflow returns.
func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// PlaceOrder creates the order and returns its projection.
func (a *Activities) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*types.OrderProjection, error) {
	logger := activity.GetLogger(ctx)
	employeeID := input.Actor.EmployeeID
	if a == nil || a.service == nil {
		logger.Error("order placement activity not initialized", "employeeId", employeeID)
		return nil, errors.New("order placement activity not initialized")
	}
	logger.Info("PlaceOrder activity started", "employeeId", employeeID, "shiftId", input.Command.ShiftID)
	projection, err := a.service.CreateOrder(ctx, input.Actor, input.Command)
	if err != nil {
		logger.Error("PlaceOrder activity failed", "employeeId", employeeID, "error", err)
		return nil, EncodeError(err)
	}
	logger.Info("PlaceOrder activity completed", "orderId", projection.Entity.ID, "code", projection.Entity.Code)
	return projection, nil
}

// EncodeError tags application failures with their category so that callers
// on the other side of the workflow can restore them.
func EncodeError(err error) error {
	for _, c := range categories {
		if errors.Is(err, c.sentinel) {
			return temporal.NewApplicationErrorWithCause(err.Error(), c.errType, err)
		}
	}
	return err
}

// DecodeError restores the application category of a workflow failure.
// Errors without a known category are returned unchanged.
func DecodeError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	for _, c := range categories {
		if appErr.Type() == c.errType {
			return &decodedError{sentinel: c.sentinel, message: appErr.Message()}
		}
	}
	return err
}

type decodedError struct {
	sentinel error
	message  string
}

func (e *decodedError) Error() string { return e.message }

func (e *decodedError) Unwrap() error { return e.sentinel }
