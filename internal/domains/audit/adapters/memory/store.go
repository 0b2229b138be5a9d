package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/ports"
)

var _ ports.Store = (*Store)(nil)

// Store is an append-only in-memory audit trail.
type Store struct {
	mu      sync.RWMutex
	records []domain.Record
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, records ...domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		rec.ID = int64(len(s.records) + 1)
		s.records = append(s.records, rec)
	}
	return nil
}

func (s *Store) LatestActor(_ context.Context, action, subject string) (*int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if rec.Action == action && rec.Subject == subject {
			if rec.ActorEmployeeID == nil {
				return nil, nil
			}
			actor := *rec.ActorEmployeeID
			return &actor, nil
		}
	}
	return nil, nil
}

func (s *Store) List(_ context.Context, filter ports.Filter) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Record, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if filter.Action != "" && rec.Action != filter.Action {
			continue
		}
		if filter.Subject != "" && rec.Subject != filter.Subject {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
