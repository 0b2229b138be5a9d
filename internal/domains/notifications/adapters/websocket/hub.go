// Package websocket delivers order notifications to live browser connections.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/notifications/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// DefaultSendBuffer is the number of frames queued per connection before
// further pushes to it are dropped.
const DefaultSendBuffer = 32

// Frame is the wire envelope of every push.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is one registered connection.
type Client struct {
	capability domain.Capability
	send       chan []byte
}

// NewClient creates a client with a bounded outbound queue.
func NewClient(capability domain.Capability, buffer int) *Client {
	if buffer < 1 {
		buffer = DefaultSendBuffer
	}
	return &Client{capability: capability, send: make(chan []byte, buffer)}
}

// Capability returns what the client was granted at handshake.
func (c *Client) Capability() domain.Capability {
	return c.capability
}

// Send is closed by the hub once the client leaves.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Hub tracks channel membership of live clients.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	clients  map[*Client]struct{}
	logger   *slog.Logger
	metrics  hubMetrics
}

type HubOption func(*Hub)

func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func WithMeter(m metric.Meter) HubOption {
	return func(h *Hub) {
		h.metrics = newHubMetrics(m)
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		channels: map[string]map[*Client]struct{}{},
		clients:  map[*Client]struct{}{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Join registers c in every channel of its capability at once.
func (h *Hub) Join(ctx context.Context, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		return
	}
	h.clients[c] = struct{}{}
	for _, ch := range c.capability.Channels() {
		members := h.channels[ch]
		if members == nil {
			members = map[*Client]struct{}{}
			h.channels[ch] = members
		}
		members[c] = struct{}{}
	}
	h.metrics.connectionDelta(ctx, 1, c.capability.Actor().Role)
}

// Leave drops c from all channels and closes its send queue.
func (h *Hub) Leave(ctx context.Context, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for _, ch := range c.capability.Channels() {
		members := h.channels[ch]
		delete(members, c)
		if len(members) == 0 {
			delete(h.channels, ch)
		}
	}
	close(c.send)
	h.metrics.connectionDelta(ctx, -1, c.capability.Actor().Role)
}

// Members returns the number of clients joined to channel.
func (h *Hub) Members(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Broadcast queues one frame for the union of members of channels. Each
// client receives it at most once; clients with a full queue miss it.
// It returns how many clients the frame was queued for.
func (h *Hub) Broadcast(ctx context.Context, channels []string, event string, payload any) (int, error) {
	frame, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := map[*Client]struct{}{}
	delivered, dropped := 0, 0
	for _, ch := range channels {
		for c := range h.channels[ch] {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			select {
			case c.send <- frame:
				delivered++
			default:
				dropped++
			}
		}
	}
	h.metrics.pushes(ctx, event, delivered, dropped)
	if dropped > 0 && h.logger != nil {
		h.logger.LogAttrs(ctx, slog.LevelWarn, "dropped notification for slow connections",
			slog.String("event", event), slog.Int("dropped", dropped))
	}
	return delivered, nil
}

type hubMetrics struct {
	active metric.Int64UpDownCounter
	pushed metric.Int64Counter
}

func newHubMetrics(m metric.Meter) hubMetrics {
	if m == nil {
		return hubMetrics{}
	}
	active, _ := m.Int64UpDownCounter("notifications.connections.active", metric.WithDescription("Number of live notification connections"))
	pushed, _ := m.Int64Counter("notifications.pushes", metric.WithDescription("Number of notification frames queued or dropped"))
	return hubMetrics{active: active, pushed: pushed}
}

func (m hubMetrics) connectionDelta(ctx context.Context, delta int64, role identity.Role) {
	if m.active != nil {
		m.active.Add(ctx, delta, metric.WithAttributes(attribute.String("role", string(role))))
	}
}

func (m hubMetrics) pushes(ctx context.Context, event string, delivered, dropped int) {
	if m.pushed == nil {
		return
	}
	if delivered > 0 {
		m.pushed.Add(ctx, int64(delivered), metric.WithAttributes(attribute.String("event", event), attribute.String("outcome", "queued")))
	}
	if dropped > 0 {
		m.pushed.Add(ctx, int64(dropped), metric.WithAttributes(attribute.String("event", event), attribute.String("outcome", "dropped")))
	}
}
