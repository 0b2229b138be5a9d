package websocket

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/notifications/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/auth"
	apierrors "github.com/Apurer/go-gin-meal-orders/internal/shared/errors"
)

// HeaderDepartmentID carries the optional department hint of a handshake.
const HeaderDepartmentID = "X-Department-Id"

const (
	defaultWriteWait  = 10 * time.Second
	defaultPongWait   = 60 * time.Second
	maxInboundMessage = 4096
)

// TokenVerifier verifies handshake credentials.
type TokenVerifier interface {
	Verify(raw string) (auth.Claims, error)
}

// Handler upgrades authenticated requests into notification connections.
type Handler struct {
	hub        *Hub
	verifier   TokenVerifier
	upgrader   websocket.Upgrader
	sendBuffer int
	writeWait  time.Duration
	pongWait   time.Duration
	logger     *slog.Logger
}

type HandlerOption func(*Handler)

// WithAllowedOrigins restricts browser origins. An empty list or "*" allows
// any origin.
func WithAllowedOrigins(origins []string) HandlerOption {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = originChecker(origins)
	}
}

func WithSendBuffer(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithPongWait sets how long a silent connection is kept. Pings are sent at
// nine tenths of it.
func WithPongWait(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.pongWait = d
		}
	}
}

func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates the realtime endpoint.
func NewHandler(hub *Hub, verifier TokenVerifier, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub:        hub,
		verifier:   verifier,
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: originChecker(nil)},
		sendBuffer: DefaultSendBuffer,
		writeWait:  defaultWriteWait,
		pongWait:   defaultPongWait,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Serve handles GET /notifications. Credentials are checked before the
// upgrade, so a rejected handshake never becomes a connection.
func (h *Handler) Serve(c *gin.Context) {
	claims, err := h.verifier.Verify(auth.TokenFromRequest(c.Request))
	if err != nil {
		h.logger.LogAttrs(c.Request.Context(), slog.LevelWarn, "unauthorized notification handshake",
			slog.String("remote", c.ClientIP()), slog.String("error", err.Error()))
		apierrors.DefaultResponder.Unauthorized(c, "invalid or missing credentials")
		c.Abort()
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.LogAttrs(c.Request.Context(), slog.LevelWarn, "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	capability := domain.NewCapability(uuid.NewString(), claims.Actor(), DepartmentHint(c.Request))
	client := NewClient(capability, h.sendBuffer)
	ctx := c.Request.Context()
	h.hub.Join(ctx, client)
	h.logger.LogAttrs(ctx, slog.LevelInfo, "notification client connected",
		slog.String("connection.id", capability.ConnectionID()),
		slog.Int64("subject", claims.Subject),
		slog.String("role", string(claims.Role)),
		slog.Any("channels", capability.Channels()))

	go h.writePump(conn, client)
	h.readPump(conn)

	h.hub.Leave(ctx, client)
	h.logger.LogAttrs(ctx, slog.LevelInfo, "notification client disconnected",
		slog.String("connection.id", capability.ConnectionID()))
}

// readPump discards inbound frames and returns when the peer goes away.
func (h *Handler) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxInboundMessage)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("notification connection closed", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(h.pongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case frame, ok := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// DepartmentHint reads the optional department from the X-Department-Id
// header or the departmentId query parameter. Non numeric values are ignored.
func DepartmentHint(r *http.Request) *int64 {
	for _, raw := range []string{r.Header.Get(HeaderDepartmentID), r.URL.Query().Get("departmentId")} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		return &id
	}
	return nil
}

func originChecker(origins []string) func(*http.Request) bool {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if allowAll || origin == "" {
			return true
		}
		return slices.Contains(origins, origin)
	}
}
