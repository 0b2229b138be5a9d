package ports

import (
	"context"

	auditdomain "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/domain"
	directorydomain "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
)

// Directory resolves employees and shifts.
type Directory interface {
	Employee(ctx context.Context, id int64) (*directorydomain.Employee, error)
	Shift(ctx context.Context, id int64) (*directorydomain.Shift, error)
}

// AuditTrail appends records and resolves the author of earlier requests.
type AuditTrail interface {
	Append(ctx context.Context, records ...auditdomain.Record) error
	LatestActor(ctx context.Context, action, subject string) (*int64, error)
}

// EventPublisher hands lifecycle events to subscribers. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}
