package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-meal-orders/internal/app/api"
	directoryredis "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/adapters/cache/redis"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/auth"
	platformobservability "github.com/Apurer/go-gin-meal-orders/internal/platform/observability"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

func main() {
	file := flag.String("file", "", "YAML fixture file; the bundled fixtures are used when empty")
	printTokens := flag.Bool("tokens", true, "print a development token for every seeded employee")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of printed tokens")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN not set; nothing to seed")
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: platformobservability.ParseLogLevel(cfg.LogLevel)}))

	raw := defaultFixtures
	if *file != "" {
		if raw, err = os.ReadFile(*file); err != nil {
			log.Fatalf("failed to read fixtures: %v", err)
		}
	}
	set, err := parseFixtures(raw)
	if err != nil {
		log.Fatalf("invalid fixtures: %v", err)
	}

	backends, cleanup, err := api.BuildBackends(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure backends: %v", err)
	}
	defer cleanup()

	if err := set.apply(ctx, backends.Writer); err != nil {
		log.Fatalf("failed to seed directory: %v", err)
	}
	if cache, ok := backends.Directory.(*directoryredis.Directory); ok {
		if err := set.invalidate(ctx, cache); err != nil {
			logger.Warn("failed to invalidate directory cache", slog.String("error", err.Error()))
		}
	}
	logger.Info("directory seeded",
		slog.Int("departments", len(set.Departments)),
		slog.Int("shifts", len(set.Shifts)),
		slog.Int("employees", len(set.Employees)),
	)

	if !*printTokens {
		return
	}
	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("failed to create verifier: %v", err)
	}
	for _, claims := range set.claims() {
		token, err := verifier.Issue(claims, *tokenTTL)
		if err != nil {
			log.Fatalf("failed to issue token for %s: %v", claims.NIK, err)
		}
		fmt.Printf("%s\t%s\t%s\n", claims.NIK, claims.Role, token)
	}
}
