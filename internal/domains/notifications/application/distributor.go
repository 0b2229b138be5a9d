// Package application turns order lifecycle events into realtime pushes.
package application

import (
	"context"
	"log/slog"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/notifications/domain"
	orderdomain "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/eventbus"
)

// Broadcaster pushes a named payload to every member of channels.
type Broadcaster interface {
	Broadcast(ctx context.Context, channels []string, event string, payload any) (int, error)
}

// Distributor routes events to channels. Delivery is fire-and-forget.
type Distributor struct {
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewDistributor(broadcaster Broadcaster, logger *slog.Logger) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distributor{broadcaster: broadcaster, logger: logger}
}

// Attach subscribes the distributor to every event on bus.
func (d *Distributor) Attach(bus *eventbus.Bus[orderdomain.Event]) (cancel func()) {
	return bus.SubscribeAll(d.Handle)
}

// Handle pushes one event to its routed channels.
func (d *Distributor) Handle(ctx context.Context, event orderdomain.Event) error {
	channels := domain.Route(event)
	if len(channels) == 0 {
		return nil
	}
	delivered, err := d.broadcaster.Broadcast(ctx, channels, event.EventName(), event)
	if err != nil {
		return err
	}
	d.logger.LogAttrs(ctx, slog.LevelDebug, "broadcast notification",
		slog.String("event", event.EventName()),
		slog.Any("channels", channels),
		slog.Int("delivered", delivered))
	return nil
}
