package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	auditdomain "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/domain"
	directorydomain "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
	directoryports "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

const defaultCodeAttempts = 5

// listScopes is the implicit status scope per role. Employees are scoped to
// their own orders instead; administrators are unrestricted.
var listScopes = map[identity.Role][]domain.Status{
	identity.RoleKitchen:  {domain.StatusWaiting, domain.StatusInProgress, domain.StatusAwaitingApproval},
	identity.RoleDelivery: {domain.StatusReady, domain.StatusOnDelivery},
}

// Service is the order lifecycle engine.
type Service struct {
	repo         ports.Repository
	directory    ports.Directory
	audit        ports.AuditTrail
	events       ports.EventPublisher
	now          func() time.Time
	location     *time.Location
	codeAttempts int
}

// Option configures optional collaborators.
type Option func(*Service)

// WithEventPublisher sets where lifecycle events go.
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the zone order dates are normalized in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

// WithCodeAttempts bounds how often a colliding order code is regenerated.
func WithCodeAttempts(n int) Option {
	return func(s *Service) {
		s.codeAttempts = n
	}
}

func NewService(repo ports.Repository, directory ports.Directory, audit ports.AuditTrail, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		directory:    directory,
		audit:        audit,
		events:       noopPublisher{},
		now:          time.Now,
		location:     time.Local,
		codeAttempts: defaultCodeAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.events == nil {
		s.events = noopPublisher{}
	}
	if s.codeAttempts < 1 {
		s.codeAttempts = 1
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, actor identity.Actor, input types.CreateOrderInput) (*types.OrderProjection, error) {
	if err := requireRole(actor, identity.RoleEmployee); err != nil {
		return nil, err
	}
	if input.Quantity < 1 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	employee, err := s.directory.Employee(ctx, actor.EmployeeID)
	if err != nil {
		if errors.Is(err, directoryports.ErrEmployeeNotFound) {
			return nil, fmt.Errorf("%w: employee %d", ErrNotFound, actor.EmployeeID)
		}
		return nil, err
	}
	if !employee.Active {
		return nil, fmt.Errorf("%w: inactive employee cannot create orders", ErrForbidden)
	}
	orderDate := s.now()
	if input.OrderDate != nil {
		orderDate = *input.OrderDate
	}
	orderDate = domain.NormalizeDate(orderDate, s.location)

	shift, err := s.directory.Shift(ctx, input.ShiftID)
	if err != nil {
		if errors.Is(err, directoryports.ErrShiftNotFound) {
			return nil, fmt.Errorf("%w: shift %d not found", ErrBadRequest, input.ShiftID)
		}
		return nil, err
	}
	if !employee.HasDepartment() {
		return nil, fmt.Errorf("%w: employee has no department assigned", ErrBadRequest)
	}

	order, err := domain.NewOrder("", employee.ID, *employee.DepartmentID, shift.ID, input.Quantity, orderDate)
	if err != nil {
		return nil, mapError(err)
	}
	created, err := s.insertWithCode(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	saved := created.Entity
	now := s.now()
	if err := s.audit.Append(ctx, auditdomain.OrderCreated(actor.EmployeeID, saved.Code, saved.Quantity, shiftLabel(shift), now)); err != nil {
		return nil, fmt.Errorf("write audit trail: %w", err)
	}
	s.events.Publish(ctx, domain.NewOrderCreated(saved, now))
	return created, nil
}

// insertWithCode assigns the next day sequence and retries when a concurrent
// insert took the same code.
func (s *Service) insertWithCode(ctx context.Context, order *domain.Order) (*types.OrderProjection, error) {
	var lastErr error
	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		count, err := s.repo.CountByDate(ctx, order.OrderDate)
		if err != nil {
			return nil, err
		}
		order.Code = domain.FormatCode(order.OrderDate, count+1)
		created, err := s.repo.Create(ctx, order)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ports.ErrDuplicateCode) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *Service) ListOrders(ctx context.Context, actor identity.Actor, input types.ListOrdersInput) (*types.OrderPage, error) {
	input = input.Normalize()
	query, err := scopeFor(actor)
	if err != nil {
		return nil, err
	}
	query.Status = input.Status
	query.DepartmentID = input.DepartmentID
	query.ShiftID = input.ShiftID
	query.RequiresApproval = input.RequiresApproval
	if input.From != nil {
		from := domain.NormalizeDate(*input.From, s.location)
		query.From = &from
	}
	if input.To != nil {
		to := domain.NormalizeDate(*input.To, s.location)
		query.To = &to
	}
	query.Offset = (input.Page - 1) * input.Limit
	query.Limit = input.Limit

	items, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	return &types.OrderPage{
		Data:       items,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: int((total + int64(input.Limit) - 1) / int64(input.Limit)),
	}, nil
}

func scopeFor(actor identity.Actor) (ports.ListQuery, error) {
	switch actor.Role {
	case identity.RoleAdministrator:
		return ports.ListQuery{}, nil
	case identity.RoleEmployee:
		id := actor.EmployeeID
		return ports.ListQuery{RequesterID: &id}, nil
	}
	statuses, ok := listScopes[actor.Role]
	if !ok {
		return ports.ListQuery{}, fmt.Errorf("%w: role %q cannot list orders", ErrForbidden, actor.Role)
	}
	return ports.ListQuery{Statuses: slices.Clone(statuses)}, nil
}

func (s *Service) GetOrder(ctx context.Context, actor identity.Actor, id int64) (*types.OrderProjection, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if actor.Is(identity.RoleEmployee) && found.Entity.RequesterEmployeeID != actor.EmployeeID {
		return nil, fmt.Errorf("%w: access denied to another employee's order", ErrForbidden)
	}
	return found, nil
}

func (s *Service) UpdateStatus(ctx context.Context, actor identity.Actor, input types.UpdateStatusInput) (*types.OrderProjection, error) {
	found, err := s.repo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	order := found.Entity
	guard := ports.GuardFor(order)
	oldStatus := order.Status
	if err := order.TransitionTo(actor.Role, input.Status, s.now()); err != nil {
		return nil, mapError(err)
	}
	updated, err := s.repo.Update(ctx, order, guard)
	if err != nil {
		return nil, mapError(err)
	}
	saved := updated.Entity
	now := s.now()
	if err := s.audit.Append(ctx, auditdomain.OrderStatusChanged(actor.EmployeeID, saved.Code, string(oldStatus), string(saved.Status), now)); err != nil {
		return nil, fmt.Errorf("write audit trail: %w", err)
	}
	s.events.Publish(ctx, statusChanged(saved, oldStatus, actor, now))
	return updated, nil
}

func (s *Service) RequestRejection(ctx context.Context, actor identity.Actor, input types.RejectionInput) (*types.OrderProjection, error) {
	if err := requireRole(actor, identity.RoleKitchen); err != nil {
		return nil, err
	}
	note := strings.TrimSpace(input.Note)
	return s.openException(ctx, actor, input.OrderID, func(order *domain.Order) error {
		return order.RequestRejection(note)
	}, func(saved *domain.Order, _ int, now time.Time) (auditdomain.Record, *int) {
		return auditdomain.RejectionRequested(actor.EmployeeID, saved.Code, note, now), nil
	}, domain.RequestReject)
}

func (s *Service) RequestEdit(ctx context.Context, actor identity.Actor, input types.EditInput) (*types.OrderProjection, error) {
	if err := requireRole(actor, identity.RoleKitchen); err != nil {
		return nil, err
	}
	note := strings.TrimSpace(input.Note)
	return s.openException(ctx, actor, input.OrderID, func(order *domain.Order) error {
		return order.RequestEdit(input.NewQuantity, note)
	}, func(saved *domain.Order, previousQty int, now time.Time) (auditdomain.Record, *int) {
		newQty := saved.Quantity
		return auditdomain.EditRequested(actor.EmployeeID, saved.Code, previousQty, newQty, note, now), &newQty
	}, domain.RequestEdit)
}

// openException runs the shared part of both exception requests: load, apply,
// guarded write, two audit records, then status and approval events.
func (s *Service) openException(
	ctx context.Context,
	actor identity.Actor,
	orderID int64,
	apply func(*domain.Order) error,
	record func(saved *domain.Order, previousQty int, now time.Time) (auditdomain.Record, *int),
	kind domain.RequestKind,
) (*types.OrderProjection, error) {
	found, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	order := found.Entity
	guard := ports.GuardFor(order)
	oldStatus := order.Status
	previousQty := order.Quantity
	if err := apply(order); err != nil {
		return nil, mapError(err)
	}
	updated, err := s.repo.Update(ctx, order, guard)
	if err != nil {
		return nil, mapError(err)
	}
	saved := updated.Entity
	now := s.now()
	requestRecord, newQty := record(saved, previousQty, now)
	if err := s.audit.Append(ctx,
		auditdomain.OrderStatusChanged(actor.EmployeeID, saved.Code, string(oldStatus), string(saved.Status), now),
		requestRecord,
	); err != nil {
		return nil, fmt.Errorf("write audit trail: %w", err)
	}

	originalQty := saved.Quantity
	if saved.OriginalQuantity != nil {
		originalQty = *saved.OriginalQuantity
	}
	s.events.Publish(ctx, statusChanged(saved, oldStatus, actor, now))
	s.events.Publish(ctx, domain.OrderApprovalRequested{
		BaseEvent:      domain.BaseEvent{Timestamp: now},
		OrderID:        saved.ID,
		Code:           saved.Code,
		RequestType:    kind,
		RequestedBy:    actor.EmployeeID,
		RequestedByNIK: actor.NIK,
		KitchenNote:    derefString(saved.KitchenNote),
		OriginalQty:    originalQty,
		NewQty:         newQty,
		DepartmentID:   saved.DepartmentID,
		RequesterID:    saved.RequesterEmployeeID,
	})
	return updated, nil
}

func (s *Service) DecideApproval(ctx context.Context, actor identity.Actor, input types.DecisionInput) (*types.OrderProjection, error) {
	if err := requireRole(actor, identity.RoleAdministrator); err != nil {
		return nil, err
	}
	found, err := s.repo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	order := found.Entity
	guard := ports.GuardFor(order)
	note := trimmedNote(input.Note)
	outcome, err := order.Decide(input.Decision, actor.EmployeeID, note)
	if err != nil {
		return nil, mapError(err)
	}

	requestAction := auditdomain.ActionOrderRejectionRequested
	requestLabel := "REJECTION_REQUEST"
	if outcome.Kind == domain.RequestEdit {
		requestAction = auditdomain.ActionOrderEditRequested
		requestLabel = "EDIT_REQUEST"
	}
	var requestedBy int64
	if actorID, err := s.audit.LatestActor(ctx, requestAction, order.Code); err != nil {
		return nil, fmt.Errorf("resolve approval requester: %w", err)
	} else if actorID != nil {
		requestedBy = *actorID
	}

	updated, err := s.repo.Update(ctx, order, guard)
	if err != nil {
		return nil, mapError(err)
	}
	saved := updated.Entity
	now := s.now()
	records := make([]auditdomain.Record, 0, 2)
	if outcome.StatusMoved {
		records = append(records, auditdomain.OrderStatusChanged(actor.EmployeeID, saved.Code, string(outcome.PreviousState), string(saved.Status), now))
	}
	records = append(records, auditdomain.ApprovalDecided(actor.EmployeeID, saved.Code, string(input.Decision), requestLabel, note, now))
	if err := s.audit.Append(ctx, records...); err != nil {
		return nil, fmt.Errorf("write audit trail: %w", err)
	}

	if outcome.StatusMoved {
		s.events.Publish(ctx, statusChanged(saved, outcome.PreviousState, actor, now))
	}
	s.events.Publish(ctx, domain.OrderApprovalDecided{
		BaseEvent:       domain.BaseEvent{Timestamp: now},
		OrderID:         saved.ID,
		Code:            saved.Code,
		Decision:        input.Decision,
		DecidedBy:       actor.EmployeeID,
		DecidedByNIK:    actor.NIK,
		AdminNote:       note,
		OriginalRequest: outcome.Kind,
		DepartmentID:    saved.DepartmentID,
		RequestedBy:     requestedBy,
	})
	return updated, nil
}

func (s *Service) PendingApprovals(ctx context.Context, actor identity.Actor) ([]*types.OrderProjection, error) {
	if err := requireRole(actor, identity.RoleAdministrator); err != nil {
		return nil, err
	}
	requires := true
	pending := domain.ApprovalPending
	items, _, err := s.repo.List(ctx, ports.ListQuery{RequiresApproval: &requires, ApprovalStatus: &pending})
	if err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

func requireRole(actor identity.Actor, allowed ...identity.Role) error {
	if slices.Contains(allowed, actor.Role) {
		return nil
	}
	return fmt.Errorf("%w: role %q is not allowed to perform this operation", ErrForbidden, actor.Role)
}

func statusChanged(order *domain.Order, oldStatus domain.Status, actor identity.Actor, now time.Time) domain.OrderStatusChanged {
	return domain.OrderStatusChanged{
		BaseEvent:     domain.BaseEvent{Timestamp: now},
		OrderID:       order.ID,
		Code:          order.Code,
		OldStatus:     oldStatus,
		NewStatus:     order.Status,
		ChangedBy:     actor.EmployeeID,
		ChangedByNIK:  actor.NIK,
		ChangedByRole: actor.Role,
		DepartmentID:  order.DepartmentID,
		RequesterID:   order.RequesterEmployeeID,
	}
}

func shiftLabel(shift *directorydomain.Shift) string {
	if shift.Name != "" {
		return shift.Name
	}
	return fmt.Sprintf("#%d", shift.ID)
}

func trimmedNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.Event) {}

var _ ports.Service = (*Service)(nil)
