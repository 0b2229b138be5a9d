package application

import (
	"context"
	"sort"
	"sync"
	"time"

	auditdomain "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/domain"
	directorydomain "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
	directoryports "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

type fakeOrderRepo struct {
	orders   map[int64]*domain.Order
	seq      map[int64]int
	nextID   int64
	updates  int
	failNext error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*domain.Order{}, seq: map[int64]int{}}
}

func (f *fakeOrderRepo) CountByDate(_ context.Context, orderDate time.Time) (int64, error) {
	var n int64
	for _, o := range f.orders {
		if o.OrderDate.Equal(orderDate) {
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderRepo) Create(_ context.Context, order *domain.Order) (*types.OrderProjection, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	for _, o := range f.orders {
		if o.Code == order.Code {
			return nil, ports.ErrDuplicateCode
		}
	}
	f.nextID++
	copy := order.Clone()
	copy.ID = f.nextID
	f.orders[copy.ID] = copy
	f.seq[copy.ID] = int(f.nextID)
	return types.NewOrderProjection(copy.Clone(), time.Time{}, time.Time{}), nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id int64) (*types.OrderProjection, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return types.NewOrderProjection(o.Clone(), time.Time{}, time.Time{}), nil
}

func (f *fakeOrderRepo) Update(_ context.Context, order *domain.Order, expect ports.Guard) (*types.OrderProjection, error) {
	current, ok := f.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if !expect.Matches(current) {
		return nil, ports.ErrConflict
	}
	f.updates++
	f.orders[order.ID] = order.Clone()
	return types.NewOrderProjection(order.Clone(), time.Time{}, time.Time{}), nil
}

func (f *fakeOrderRepo) List(_ context.Context, query ports.ListQuery) ([]*types.OrderProjection, int64, error) {
	var ids []int64
	for id, o := range f.orders {
		if query.Matches(o) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return f.seq[ids[i]] > f.seq[ids[j]] })
	total := int64(len(ids))
	if query.Offset < len(ids) {
		ids = ids[query.Offset:]
	} else {
		ids = nil
	}
	if query.Limit > 0 && len(ids) > query.Limit {
		ids = ids[:query.Limit]
	}
	var list []*types.OrderProjection
	for _, id := range ids {
		list = append(list, types.NewOrderProjection(f.orders[id].Clone(), time.Time{}, time.Time{}))
	}
	return list, total, nil
}

// put stores order as-is, bypassing the engine.
func (f *fakeOrderRepo) put(order *domain.Order) *domain.Order {
	f.nextID++
	order.ID = f.nextID
	f.orders[order.ID] = order.Clone()
	f.seq[order.ID] = int(f.nextID)
	return order
}

type fakeDirectory struct {
	employees map[int64]directorydomain.Employee
	shifts    map[int64]directorydomain.Shift
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{employees: map[int64]directorydomain.Employee{}, shifts: map[int64]directorydomain.Shift{}}
}

func (f *fakeDirectory) Employee(_ context.Context, id int64) (*directorydomain.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, directoryports.ErrEmployeeNotFound
	}
	return &e, nil
}

func (f *fakeDirectory) Shift(_ context.Context, id int64) (*directorydomain.Shift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return nil, directoryports.ErrShiftNotFound
	}
	return &s, nil
}

type fakeAudit struct {
	records []auditdomain.Record
}

func (f *fakeAudit) Append(_ context.Context, records ...auditdomain.Record) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeAudit) LatestActor(_ context.Context, action, subject string) (*int64, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].Action == action && f.records[i].Subject == subject {
			return f.records[i].ActorEmployeeID, nil
		}
	}
	return nil, nil
}

func (f *fakeAudit) actions() []string {
	out := make([]string, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r.Action)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

const (
	deptID      int64 = 7
	shiftID     int64 = 2
	employeeID  int64 = 100
	otherEmpID  int64 = 101
	kitchenID   int64 = 200
	deliveryID  int64 = 300
	adminID     int64 = 400
	inactiveID  int64 = 500
	noDeptEmpID int64 = 600
)

var (
	employeeActor = identity.Actor{SubjectID: 1, EmployeeID: employeeID, NIK: "EMP-100", Role: identity.RoleEmployee}
	otherActor    = identity.Actor{SubjectID: 2, EmployeeID: otherEmpID, NIK: "EMP-101", Role: identity.RoleEmployee}
	kitchenActor  = identity.Actor{SubjectID: 3, EmployeeID: kitchenID, NIK: "KIT-200", Role: identity.RoleKitchen}
	deliveryActor = identity.Actor{SubjectID: 4, EmployeeID: deliveryID, NIK: "DEL-300", Role: identity.RoleDelivery}
	adminActor    = identity.Actor{SubjectID: 5, EmployeeID: adminID, NIK: "ADM-400", Role: identity.RoleAdministrator}
)

type harness struct {
	svc    *Service
	repo   *fakeOrderRepo
	dir    *fakeDirectory
	audit  *fakeAudit
	events *recordingPublisher
	now    time.Time
}

func newHarness() *harness {
	h := &harness{
		repo:   newFakeOrderRepo(),
		dir:    newFakeDirectory(),
		audit:  &fakeAudit{},
		events: &recordingPublisher{},
		now:    time.Date(2024, 10, 15, 9, 30, 0, 0, time.UTC),
	}
	dept := deptID
	h.dir.employees[employeeID] = directorydomain.Employee{ID: employeeID, NIK: "EMP-100", DepartmentID: &dept, Role: identity.RoleEmployee, Active: true}
	h.dir.employees[otherEmpID] = directorydomain.Employee{ID: otherEmpID, NIK: "EMP-101", DepartmentID: &dept, Role: identity.RoleEmployee, Active: true}
	h.dir.employees[inactiveID] = directorydomain.Employee{ID: inactiveID, NIK: "EMP-500", DepartmentID: &dept, Role: identity.RoleEmployee}
	h.dir.employees[noDeptEmpID] = directorydomain.Employee{ID: noDeptEmpID, NIK: "EMP-600", Role: identity.RoleEmployee, Active: true}
	h.dir.shifts[shiftID] = directorydomain.Shift{ID: shiftID, Name: "Shift 2"}
	h.svc = NewService(h.repo, h.dir, h.audit,
		WithEventPublisher(h.events),
		WithClock(func() time.Time { return h.now }),
		WithLocation(time.UTC),
	)
	return h
}

// seed stores an order in status for employeeID without going through the engine.
func (h *harness) seed(status domain.Status, quantity int) *domain.Order {
	order, err := domain.NewOrder("", employeeID, deptID, shiftID, quantity, domain.NormalizeDate(h.now, time.UTC))
	if err != nil {
		panic(err)
	}
	order.Code = domain.FormatCode(order.OrderDate, h.repo.nextID+1)
	order.Status = status
	if status == domain.StatusAwaitingApproval {
		pending := domain.ApprovalPending
		qty := quantity
		order.RequiresApproval = true
		order.ApprovalStatus = &pending
		order.OriginalQuantity = &qty
	}
	return h.repo.put(order)
}

func (h *harness) stored(id int64) *domain.Order {
	return h.repo.orders[id].Clone()
}
