package orders

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-gin-meal-orders/internal/platform/temporal/activities/orders"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

type stubService struct {
	ports.Service
	calls  atomic.Int32
	create func(identity.Actor, types.CreateOrderInput) (*types.OrderProjection, error)
}

func (s *stubService) CreateOrder(_ context.Context, actor identity.Actor, input types.CreateOrderInput) (*types.OrderProjection, error) {
	s.calls.Add(1)
	return s.create(actor, input)
}

func newEnv(t *testing.T, svc ports.Service) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	acts := orderactivities.NewActivities(svc)
	env.RegisterActivityWithOptions(acts.PlaceOrder, activity.RegisterOptions{Name: orderactivities.PlaceOrderActivityName})
	return env
}

var employee = identity.Actor{SubjectID: 1, EmployeeID: 100, NIK: "EMP-100", Role: identity.RoleEmployee}

func TestOrderPlacementWorkflowReturnsProjection(t *testing.T) {
	orderDate := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)
	svc := &stubService{create: func(actor identity.Actor, input types.CreateOrderInput) (*types.OrderProjection, error) {
		order, err := domain.NewOrder(domain.FormatCode(orderDate, 1), actor.EmployeeID, 7, input.ShiftID, input.Quantity, orderDate)
		if err != nil {
			return nil, err
		}
		order.ID = 42
		return types.NewOrderProjection(order, orderDate, orderDate), nil
	}}
	env := newEnv(t, svc)

	env.ExecuteWorkflow(OrderPlacementWorkflow, OrderPlacementWorkflowInput{
		Actor:   employee,
		Command: types.CreateOrderInput{ShiftID: 2, Quantity: 3},
		TraceID: "trace-1",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var projection types.OrderProjection
	require.NoError(t, env.GetWorkflowResult(&projection))
	require.NotNil(t, projection.Entity)
	assert.Equal(t, int64(42), projection.Entity.ID)
	assert.Equal(t, "PM-20241015-001", projection.Entity.Code)
	assert.Equal(t, 3, projection.Entity.Quantity)
	assert.Equal(t, domain.StatusWaiting, projection.Entity.Status)
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestOrderPlacementWorkflowDoesNotRetryRejectedInput(t *testing.T) {
	svc := &stubService{create: func(identity.Actor, types.CreateOrderInput) (*types.OrderProjection, error) {
		return nil, fmt.Errorf("%w: shift 9 not found", application.ErrBadRequest)
	}}
	env := newEnv(t, svc)

	env.ExecuteWorkflow(OrderPlacementWorkflow, OrderPlacementWorkflowInput{
		Actor:   employee,
		Command: types.CreateOrderInput{ShiftID: 9, Quantity: 1},
	})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.Equal(t, int32(1), svc.calls.Load())

	decoded := orderactivities.DecodeError(err)
	assert.ErrorIs(t, decoded, application.ErrBadRequest)
	assert.Equal(t, "bad request: shift 9 not found", decoded.Error())
}
