package api

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"gopkg.in/yaml.v3"
)

// Audit backends selectable through AUDIT_BACKEND.
const (
	AuditBackendMemory   = "memory"
	AuditBackendPostgres = "postgres"
	AuditBackendDynamoDB = "dynamodb"
)

const (
	defaultDirectoryCacheTTL = 30 * time.Second
	defaultSendBuffer        = 32
)

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port              string
	PostgresDSN       string
	JWTSecret         string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	RedisAddr         string
	DirectoryCacheTTL time.Duration
	AuditBackend      string
	AuditDynamoTable  string
	AWSRegion         string
	AWSEndpointURL    string
	CORSOrigins       []string
	WSSendBuffer      int
	Environment       string
	LogLevel          string
	Location          *time.Location
}

// LoadConfig reads .env (when present), the optional YAML file named by
// CONFIG_FILE and the process environment, in increasing order of precedence.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	file, err := loadConfigFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		return Config{}, err
	}
	lookup := func(key, fallback string) string {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
		if val := strings.TrimSpace(file[key]); val != "" {
			return val
		}
		return fallback
	}

	cfg := Config{
		Port:              lookup("PORT", "8080"),
		PostgresDSN:       lookup("POSTGRES_DSN", ""),
		JWTSecret:         lookup("JWT_SECRET", ""),
		TemporalAddress:   lookup("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: lookup("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(lookup("TEMPORAL_DISABLED", "")),
		RedisAddr:         lookup("REDIS_ADDR", ""),
		DirectoryCacheTTL: defaultDirectoryCacheTTL,
		AuditBackend:      strings.ToLower(lookup("AUDIT_BACKEND", "")),
		AuditDynamoTable:  lookup("AUDIT_DYNAMODB_TABLE", "audit_logs"),
		AWSRegion:         lookup("AWS_REGION", "us-east-1"),
		AWSEndpointURL:    lookup("AWS_ENDPOINT_URL", ""),
		CORSOrigins:       splitList(lookup("CORS_ORIGIN", "")),
		WSSendBuffer:      defaultSendBuffer,
		Environment:       lookup("ENVIRONMENT", "local"),
		LogLevel:          lookup("LOG_LEVEL", "info"),
		Location:          time.Local,
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if raw := lookup("DIRECTORY_CACHE_TTL", ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("DIRECTORY_CACHE_TTL must be a positive duration")
		}
		cfg.DirectoryCacheTTL = ttl
	}
	if raw := lookup("WS_SEND_BUFFER", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("WS_SEND_BUFFER must be a positive integer")
		}
		cfg.WSSendBuffer = n
	}
	if raw := lookup("TIMEZONE", ""); raw != "" {
		loc, err := time.LoadLocation(raw)
		if err != nil {
			return Config{}, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}
	switch cfg.AuditBackend {
	case "":
		cfg.AuditBackend = AuditBackendPostgres
		if cfg.PostgresDSN == "" {
			cfg.AuditBackend = AuditBackendMemory
		}
	case AuditBackendMemory, AuditBackendPostgres, AuditBackendDynamoDB:
	default:
		return Config{}, fmt.Errorf("AUDIT_BACKEND must be one of memory, postgres, dynamodb")
	}
	return cfg, nil
}

// loadConfigFile reads a flat YAML mapping. Keys are matched against
// environment variable names case-insensitively.
func loadConfigFile(path string) (map[string]string, error) {
	values := map[string]string{}
	if path == "" {
		return values, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse CONFIG_FILE: %w", err)
	}
	for key, value := range doc {
		if value == nil {
			continue
		}
		values[strings.ToUpper(key)] = fmt.Sprint(value)
	}
	return values, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
