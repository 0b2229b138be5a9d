package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter. Codes are unique and
// guarded updates compare status and approval status under the write lock.
type Repository struct {
	mu     sync.RWMutex
	orders map[int64]*entry
	codes  map[string]int64
	nextID int64
	now    func() time.Time
}

type entry struct {
	order     *domain.Order
	createdAt time.Time
	updatedAt time.Time
}

func NewRepository() *Repository {
	return &Repository{
		orders: map[int64]*entry{},
		codes:  map[string]int64{},
		now:    time.Now,
	}
}

func (r *Repository) CountByDate(_ context.Context, orderDate time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, e := range r.orders {
		if e.order.OrderDate.Equal(orderDate) {
			count++
		}
	}
	return count, nil
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*types.OrderProjection, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.codes[clone.Code]; taken {
		return nil, ports.ErrDuplicateCode
	}
	r.nextID++
	clone.ID = r.nextID
	now := r.now()
	r.orders[clone.ID] = &entry{order: clone, createdAt: now, updatedAt: now}
	r.codes[clone.Code] = clone.ID
	order.ID = clone.ID
	return types.NewOrderProjection(clone.Clone(), now, now), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*types.OrderProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return e.projection(), nil
}

func (r *Repository) Update(_ context.Context, order *domain.Order, expect ports.Guard) (*types.OrderProjection, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if !expect.Matches(e.order) {
		return nil, ports.ErrConflict
	}
	clone := order.Clone()
	clone.Code = e.order.Code
	e.order = clone
	e.updatedAt = r.now()
	return e.projection(), nil
}

func (r *Repository) List(_ context.Context, query ports.ListQuery) ([]*types.OrderProjection, int64, error) {
	r.mu.RLock()
	matched := make([]*entry, 0, len(r.orders))
	for _, e := range r.orders {
		if query.Matches(e.order) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].createdAt.Equal(matched[j].createdAt) {
			return matched[i].createdAt.After(matched[j].createdAt)
		}
		return matched[i].order.ID > matched[j].order.ID
	})
	list := make([]*types.OrderProjection, 0, len(matched))
	for _, e := range page(matched, query.Offset, query.Limit) {
		list = append(list, e.projection())
	}
	r.mu.RUnlock()
	return list, int64(len(matched)), nil
}

func page(items []*entry, offset, limit int) []*entry {
	if offset >= len(items) {
		return nil
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (e *entry) projection() *types.OrderProjection {
	return types.NewOrderProjection(e.order.Clone(), e.createdAt, e.updatedAt)
}
