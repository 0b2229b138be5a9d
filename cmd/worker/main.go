package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-meal-orders/internal/app/api"
	ordersobs "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application"
	platformobservability "github.com/Apurer/go-gin-meal-orders/internal/platform/observability"
	orderactivities "github.com/Apurer/go-gin-meal-orders/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-meal-orders/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	const serviceName = "meal-orders-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName, platformobservability.WithLogLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	backends, cleanupBackends, err := api.BuildBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure backends", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanupBackends()
	if !backends.Shared {
		logger.Error("the worker needs POSTGRES_DSN: in-memory orders would not be visible to the API")
		cleanupBackends()
		os.Exit(1)
	}

	// Realtime events for worker-placed orders are published by the API process.
	orderService := ordersobs.New(
		ordersapp.NewService(backends.Orders, backends.Directory, backends.Audit, ordersapp.WithLocation(cfg.Location)),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	orderActivities := orderactivities.NewActivities(orderService)

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderPlacementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderPlacementWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderPlacementWorkflowName})
	w.RegisterActivityWithOptions(orderActivities.PlaceOrder, activity.RegisterOptions{Name: orderactivities.PlaceOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderPlacementTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
