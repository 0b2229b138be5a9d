package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.temporal.io/sdk/client"

	audithttp "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/adapters/http"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/notifications/adapters/websocket"
	notificationsapp "github.com/Apurer/go-gin-meal-orders/internal/domains/notifications/application"
	ordershttp "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/http"
	ordersobs "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/observability"
	ordersworkflows "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/auth"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/eventbus"
	platformobservability "github.com/Apurer/go-gin-meal-orders/internal/platform/observability"
	apierrors "github.com/Apurer/go-gin-meal-orders/internal/shared/errors"
)

const shutdownTimeout = 5 * time.Second

// Run boots the meal order API with observability, storage, workflows and
// realtime notifications wired. It returns when ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	const serviceName = "meal-orders-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName, platformobservability.WithLogLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	backends, cleanupBackends, err := BuildBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupBackends()

	bus := eventbus.New[ordersdomain.Event](eventbus.WithLogger(logger))
	hub := websocket.NewHub(
		websocket.WithLogger(logger),
		websocket.WithMeter(instruments.Meter("internal.notifications")),
	)
	stopDistributor := notificationsapp.NewDistributor(hub, logger).Attach(bus)
	defer stopDistributor()

	coreService := ordersapp.NewService(
		backends.Orders,
		backends.Directory,
		backends.Audit,
		ordersapp.WithEventPublisher(bus),
		ordersapp.WithLocation(cfg.Location),
	)
	orderService := ordersobs.New(
		coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	inline := ordersworkflows.NewInlineOrderWorkflows(orderService, ordersworkflows.WithIdempotencyStore(backends.Idempotency))
	orderWorkflows, closeWorkflows := selectOrderWorkflows(backends, inline, func() (client.Client, error) {
		return ConnectTemporal(cfg, instruments, "temporal-client")
	}, bus, logger)
	defer closeWorkflows()

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}
	apierrors.UseJSONFieldNames()

	router := NewRouter(RouterDeps{
		ServiceName: serviceName,
		Verifier:    verifier,
		Orders:      ordershttp.NewOrderAPI(orderService, orderWorkflows, cfg.Location),
		Audit:       audithttp.NewAuditAPI(backends.Audit),
		Notifications: websocket.NewHandler(hub, verifier,
			websocket.WithAllowedOrigins(cfg.CORSOrigins),
			websocket.WithSendBuffer(cfg.WSSendBuffer),
			websocket.WithHandlerLogger(logger),
		),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Meal orders API shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("Meal orders API listening", slog.String("addr", server.Addr), slog.String("environment", cfg.Environment))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Meal orders API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// selectOrderWorkflows places orders through Temporal only when the worker
// persists into the same order store as the API. In-memory backends are
// private to each process, so those setups always place orders inline.
func selectOrderWorkflows(
	backends *Backends,
	inline ordersports.WorkflowOrchestrator,
	dial func() (client.Client, error),
	events ordersports.EventPublisher,
	logger *slog.Logger,
) (ordersports.WorkflowOrchestrator, func()) {
	if !backends.Shared {
		logger.Warn("order store is in-memory, placing orders inline instead of through Temporal")
		return inline, func() {}
	}
	temporalClient, err := dial()
	if err != nil {
		logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
		return inline, func() {}
	}
	logger.Info("Temporal workflows enabled")
	return ordersworkflows.NewTemporalOrderWorkflows(temporalClient, ordersworkflows.WithEventPublisher(events)), temporalClient.Close
}
