package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-gin-meal-orders/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-meal-orders/internal/platform/temporal/workflows/orders"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

// WorkflowStarter is the subset of the Temporal client used to place orders.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
}

// TemporalOrderWorkflows places orders through a Temporal cluster. The worker
// persists and audits the order; the API process announces it to realtime
// subscribers once the run completes.
type TemporalOrderWorkflows struct {
	client    WorkflowStarter
	taskQueue string
	events    ports.EventPublisher
	now       func() time.Time
}

// TemporalOption customizes TemporalOrderWorkflows.
type TemporalOption func(*TemporalOrderWorkflows)

// WithEventPublisher announces orders placed by the worker.
func WithEventPublisher(publisher ports.EventPublisher) TemporalOption {
	return func(o *TemporalOrderWorkflows) {
		o.events = publisher
	}
}

// WithTaskQueue overrides the default placement task queue.
func WithTaskQueue(queue string) TemporalOption {
	return func(o *TemporalOrderWorkflows) {
		if strings.TrimSpace(queue) != "" {
			o.taskQueue = queue
		}
	}
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
func NewTemporalOrderWorkflows(c WorkflowStarter, opts ...TemporalOption) *TemporalOrderWorkflows {
	o := &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.OrderPlacementTaskQueue, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PlaceOrder starts the placement workflow and waits for its result.
func (o *TemporalOrderWorkflows) PlaceOrder(ctx context.Context, actor identity.Actor, input types.CreateOrderInput) (*types.OrderProjection, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildOrderPlacementWorkflowID(actor, input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderPlacementWorkflowName,
		orderworkflows.OrderPlacementWorkflowInput{Actor: actor, Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(input.IdempotencyKey) != "" {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var projection types.OrderProjection
			if err := existingRun.Get(ctx, &projection); err != nil {
				return nil, orderactivities.DecodeError(err)
			}
			return &projection, nil
		}
		return nil, err
	}
	var projection types.OrderProjection
	if err := run.Get(ctx, &projection); err != nil {
		return nil, orderactivities.DecodeError(err)
	}
	if o.events != nil && projection.Entity != nil {
		o.events.Publish(ctx, domain.NewOrderCreated(projection.Entity, o.now()))
	}
	return &projection, nil
}

// InlineOrderWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineOrderWorkflows struct {
	service     ports.Service
	idempotency ports.IdempotencyStore
}

// InlineOption customizes InlineOrderWorkflows.
type InlineOption func(*InlineOrderWorkflows)

// WithIdempotencyStore replays orders placed under a repeated Idempotency-Key.
func WithIdempotencyStore(store ports.IdempotencyStore) InlineOption {
	return func(o *InlineOrderWorkflows) {
		o.idempotency = store
	}
}

// NewInlineOrderWorkflows wraps the order service for synchronous execution.
func NewInlineOrderWorkflows(service ports.Service, opts ...InlineOption) *InlineOrderWorkflows {
	o := &InlineOrderWorkflows{service: service}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PlaceOrder delegates to the application service without durable orchestration.
func (o *InlineOrderWorkflows) PlaceOrder(ctx context.Context, actor identity.Actor, input types.CreateOrderInput) (*types.OrderProjection, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline order workflows not configured")
	}
	if o.idempotency == nil || strings.TrimSpace(input.IdempotencyKey) == "" {
		return o.service.CreateOrder(ctx, actor, input)
	}

	key := application.IdempotencyScope(actor, input.IdempotencyKey)
	hash, err := application.FingerprintCreateOrder(actor, input)
	if err != nil {
		return nil, err
	}
	existing, err := o.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return o.replay(ctx, actor, existing, hash)
	}

	created, err := o.service.CreateOrder(ctx, actor, input)
	if err != nil {
		return nil, err
	}
	stored, err := o.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, OrderID: created.Entity.ID})
	if errors.Is(err, ports.ErrIdempotencyConflict) && stored != nil {
		return o.replay(ctx, actor, stored, hash)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (o *InlineOrderWorkflows) replay(ctx context.Context, actor identity.Actor, record *ports.IdempotencyRecord, hash string) (*types.OrderProjection, error) {
	if record.RequestHash != hash {
		return nil, fmt.Errorf("%w: %w", application.ErrConflict, ports.ErrIdempotencyConflict)
	}
	return o.service.GetOrder(ctx, actor, record.OrderID)
}

func buildOrderPlacementWorkflowID(actor identity.Actor, input types.CreateOrderInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("order-placement-idem-%d-%s", actor.EmployeeID, hashIdempotencyKey(key))
	}
	return fmt.Sprintf("order-placement-%d-%s", actor.EmployeeID, traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	traceComponent := workflowTraceID(ctx)
	if traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
