package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

const tracerName = "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/observability/service"

// Service decorates the order service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.Default(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, actor identity.Actor, input types.CreateOrderInput) (*types.OrderProjection, error) {
	ctx, span := s.start(ctx, "OrderService.CreateOrder", actor,
		attribute.Int64("order.shift_id", input.ShiftID), attribute.Int("order.quantity", input.Quantity))
	defer span.End()

	s.logInfo(ctx, "creating order", actorAttrs(actor, slog.Int64("order.shift_id", input.ShiftID), slog.Int("order.quantity", input.Quantity))...)
	result, err := s.inner.CreateOrder(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", actorAttrs(actor)...)
	}
	span.SetAttributes(attribute.Int64("order.id", result.Entity.ID), attribute.String("order.code", result.Entity.Code))
	s.metrics.recordCreated(ctx, result.Entity.DepartmentID)
	s.logInfo(ctx, "order created", slog.Int64("order.id", result.Entity.ID), slog.String("order.code", result.Entity.Code))
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, actor identity.Actor, input types.ListOrdersInput) (*types.OrderPage, error) {
	ctx, span := s.start(ctx, "OrderService.ListOrders", actor,
		attribute.Int("page", input.Page), attribute.Int("limit", input.Limit))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", actorAttrs(actor)...)
	}
	span.SetAttributes(attribute.Int64("orders.total", result.Total), attribute.Int("orders.returned", len(result.Data)))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, actor identity.Actor, id int64) (*types.OrderProjection, error) {
	ctx, span := s.start(ctx, "OrderService.GetOrder", actor, attribute.Int64("order.id", id))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", actorAttrs(actor, slog.Int64("order.id", id))...)
	}
	return result, nil
}

func (s *Service) UpdateStatus(ctx context.Context, actor identity.Actor, input types.UpdateStatusInput) (*types.OrderProjection, error) {
	ctx, span := s.start(ctx, "OrderService.UpdateStatus", actor,
		attribute.Int64("order.id", input.OrderID), attribute.String("order.target_status", string(input.Status)))
	defer span.End()

	s.logInfo(ctx, "updating order status", actorAttrs(actor, slog.Int64("order.id", input.OrderID), slog.String("status", string(input.Status)))...)
	result, err := s.inner.UpdateStatus(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status", actorAttrs(actor, slog.Int64("order.id", input.OrderID))...)
	}
	s.metrics.recordTransition(ctx, actor.Role, string(result.Entity.Status))
	s.logInfo(ctx, "order status updated", slog.Int64("order.id", result.Entity.ID), slog.String("status", string(result.Entity.Status)))
	return result, nil
}

func (s *Service) RequestRejection(ctx context.Context, actor identity.Actor, input types.RejectionInput) (*types.OrderProjection, error) {
	ctx, span := s.start(ctx, "OrderService.RequestRejection", actor, attribute.Int64("order.id", input.OrderID))
	defer span.End()

	s.logInfo(ctx, "requesting order rejection", actorAttrs(actor, slog.Int64("order.id", input.OrderID))...)
	result, err := s.inner.RequestRejection(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to request rejection", actorAttrs(actor, slog.Int64("order.id", input.OrderID))...)
	}
	s.metrics.recordApprovalRequest(ctx, "REJECT")
	return result, nil
}

func (s *Service) RequestEdit(ctx context.Context, actor identity.Actor, input types.EditInput) (*types.OrderProjection, error) {
	ctx, span := s.start(ctx, "OrderService.RequestEdit", actor,
		attribute.Int64("order.id", input.OrderID), attribute.Int("order.new_quantity", input.NewQuantity))
	defer span.End()

	s.logInfo(ctx, "requesting order edit", actorAttrs(actor, slog.Int64("order.id", input.OrderID), slog.Int("order.new_quantity", input.NewQuantity))...)
	result, err := s.inner.RequestEdit(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to request edit", actorAttrs(actor, slog.Int64("order.id", input.OrderID))...)
	}
	s.metrics.recordApprovalRequest(ctx, "EDIT")
	return result, nil
}

func (s *Service) DecideApproval(ctx context.Context, actor identity.Actor, input types.DecisionInput) (*types.OrderProjection, error) {
	ctx, span := s.start(ctx, "OrderService.DecideApproval", actor,
		attribute.Int64("order.id", input.OrderID), attribute.String("approval.decision", string(input.Decision)))
	defer span.End()

	s.logInfo(ctx, "deciding approval", actorAttrs(actor, slog.Int64("order.id", input.OrderID), slog.String("decision", string(input.Decision)))...)
	result, err := s.inner.DecideApproval(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to decide approval", actorAttrs(actor, slog.Int64("order.id", input.OrderID))...)
	}
	s.metrics.recordDecision(ctx, string(input.Decision))
	s.logInfo(ctx, "approval decided", slog.Int64("order.id", result.Entity.ID), slog.String("status", string(result.Entity.Status)))
	return result, nil
}

func (s *Service) PendingApprovals(ctx context.Context, actor identity.Actor) ([]*types.OrderProjection, error) {
	ctx, span := s.start(ctx, "OrderService.PendingApprovals", actor)
	defer span.End()

	result, err := s.inner.PendingApprovals(ctx, actor)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list pending approvals", actorAttrs(actor)...)
	}
	span.SetAttributes(attribute.Int("orders.returned", len(result)))
	return result, nil
}

func (s *Service) start(ctx context.Context, name string, actor identity.Actor, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.Int64("actor.employee_id", actor.EmployeeID), attribute.String("actor.role", string(actor.Role)))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func actorAttrs(actor identity.Actor, attrs ...slog.Attr) []slog.Attr {
	return append(attrs, slog.Int64("actor.employee_id", actor.EmployeeID), slog.String("actor.role", string(actor.Role)))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersCreated     metric.Int64Counter
	statusTransitions metric.Int64Counter
	approvalRequests  metric.Int64Counter
	approvalDecisions metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("orders.service.orders_created", metric.WithDescription("Number of meal orders created"))
	transitions, _ := m.Int64Counter("orders.service.status_transitions", metric.WithDescription("Number of status transitions applied"))
	requests, _ := m.Int64Counter("orders.service.approval_requests", metric.WithDescription("Number of rejection or edit requests opened"))
	decisions, _ := m.Int64Counter("orders.service.approval_decisions", metric.WithDescription("Number of approval decisions recorded"))
	return serviceMetrics{
		ordersCreated:     created,
		statusTransitions: transitions,
		approvalRequests:  requests,
		approvalDecisions: decisions,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, departmentID int64) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.Int64("order.department_id", departmentID)))
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, role identity.Role, status string) {
	if m.statusTransitions != nil {
		m.statusTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("actor.role", string(role)), attribute.String("order.status", status)))
	}
}

func (m serviceMetrics) recordApprovalRequest(ctx context.Context, kind string) {
	if m.approvalRequests != nil {
		m.approvalRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("request.kind", kind)))
	}
}

func (m serviceMetrics) recordDecision(ctx context.Context, decision string) {
	if m.approvalDecisions != nil {
		m.approvalDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("approval.decision", decision)))
	}
}

var _ ports.Service = (*Service)(nil)
