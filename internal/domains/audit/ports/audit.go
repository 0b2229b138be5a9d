package ports

import (
	"context"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/domain"
)

// Sink appends records to the audit trail.
type Sink interface {
	Append(ctx context.Context, records ...domain.Record) error
}

// Lookup answers who performed the latest action on a subject.
type Lookup interface {
	// LatestActor returns nil when no matching record exists.
	LatestActor(ctx context.Context, action, subject string) (*int64, error)
}

// Filter narrows audit listings.
type Filter struct {
	Action  string
	Subject string
	Limit   int
}

// Reader lists audit records newest first.
type Reader interface {
	List(ctx context.Context, filter Filter) ([]domain.Record, error)
}

// Store is the full audit backend.
type Store interface {
	Sink
	Lookup
	Reader
}
