package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	auditdynamo "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/adapters/dynamodb"
	auditmemory "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/adapters/memory"
	auditpostgres "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/adapters/persistence/postgres"
	auditports "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/ports"
	directoryredis "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/adapters/cache/redis"
	directorymemory "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/adapters/memory"
	directorypostgres "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/adapters/persistence/postgres"
	directoryports "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/ports"
	ordersmemory "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/persistence/postgres"
	ordersports "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	platformdynamodb "github.com/Apurer/go-gin-meal-orders/internal/platform/dynamodb"
	platformobservability "github.com/Apurer/go-gin-meal-orders/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-meal-orders/internal/platform/postgres"
)

// Backends are the storage adapters shared by the API, worker and seeder.
type Backends struct {
	Orders    ordersports.Repository
	Directory directoryports.Directory
	// Writer bypasses the directory cache.
	Writer      directoryports.Writer
	Audit       auditports.Store
	Idempotency ordersports.IdempotencyStore
	// Shared is true when orders and the directory live in postgres, so
	// every process built from the same config sees the same rows.
	Shared bool
}

// BuildBackends selects postgres adapters when POSTGRES_DSN is reachable and
// in-memory ones otherwise. The Redis directory cache and the audit backend
// follow REDIS_ADDR and AUDIT_BACKEND.
func BuildBackends(ctx context.Context, cfg Config, logger *slog.Logger) (*Backends, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	db, closeDB := platformpostgres.ConnectOrFallback(ctx, cfg.PostgresDSN, logger)
	cleanups = append(cleanups, closeDB)

	backends := &Backends{}
	if db != nil {
		dir := directorypostgres.NewDirectory(db)
		backends.Orders = orderspostgres.NewRepository(db)
		backends.Idempotency = orderspostgres.NewIdempotencyStore(db)
		backends.Directory, backends.Writer = dir, dir
		backends.Shared = true
	} else {
		dir := directorymemory.NewDirectory()
		backends.Orders = ordersmemory.NewRepository()
		backends.Idempotency = ordersmemory.NewIdempotencyStore()
		backends.Directory, backends.Writer = dir, dir
	}

	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		backends.Directory = directoryredis.NewDirectory(backends.Directory, rdb,
			directoryredis.WithTTL(cfg.DirectoryCacheTTL),
			directoryredis.WithLogger(logger),
		)
		logger.Info("directory cache enabled", slog.String("addr", cfg.RedisAddr), slog.Duration("ttl", cfg.DirectoryCacheTTL))
	}

	switch cfg.AuditBackend {
	case AuditBackendDynamoDB:
		ddb, err := platformdynamodb.Connect(ctx, platformdynamodb.Options{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpointURL})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect dynamodb: %w", err)
		}
		if cfg.Environment == "local" {
			if err := auditdynamo.EnsureTable(ctx, ddb, cfg.AuditDynamoTable); err != nil {
				logger.Warn("failed to ensure audit table", slog.String("table", cfg.AuditDynamoTable), slog.String("error", err.Error()))
			}
		}
		backends.Audit = auditdynamo.NewStore(ddb, cfg.AuditDynamoTable)
	case AuditBackendPostgres:
		if db == nil {
			logger.Warn("postgres audit backend requested without a database, falling back to memory")
			backends.Audit = auditmemory.NewStore()
			break
		}
		backends.Audit = auditpostgres.NewStore(db)
	default:
		backends.Audit = auditmemory.NewStore()
	}
	logger.Info("backends configured",
		slog.Bool("postgres", db != nil),
		slog.String("audit", cfg.AuditBackend),
	)
	return backends, cleanup, nil
}

// ConnectTemporal dials Temporal with tracing and structured logging. It
// fails fast when TEMPORAL_DISABLED is set.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.Default()
}
