// Package config defines the process configuration for the surf alert
// service. It is loaded once at startup and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or invalid format fails startup.
package config

import (
	"time"

	"surfalert/internal/types"
)

// SecretString is an alias for types.SecretString.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the section they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"surfalert"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Worker        WorkerConfig
	Affiliates    AffiliateConfig
	Security      SecurityConfig
	Observability ObservabilityConfig
	Sweep         SweepConfig

	// Injected via ldflags, not env.
	Build BuildInfo `ignored:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds the connection string and pool tuning.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds regional settings and the LocalStack override.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"eu-west-1"`

	// Empty in prod.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// WorkerConfig selects and configures the worker job transport.
type WorkerConfig struct {
	DispatchMode types.DispatchMode `envconfig:"WORKER_DISPATCH_MODE" default:"sqs" validate:"oneof=sqs github"`

	QueueURL string `envconfig:"WORKER_QUEUE_URL" validate:"required_if=DispatchMode sqs"`

	GitHubAPIURL   string       `envconfig:"GITHUB_API_URL" default:"https://api.github.com" validate:"url"`
	GitHubRepo     string       `envconfig:"GITHUB_REPO" validate:"required_if=DispatchMode github"`
	GitHubWorkflow string       `envconfig:"GITHUB_WORKFLOW" default:"price-worker.yml"`
	GitHubRef      string       `envconfig:"GITHUB_REF" default:"main"`
	GitHubToken    SecretString `envconfig:"GITHUB_TOKEN" validate:"required_if=DispatchMode github"`

	// EstimatedRunTime is reported to clients after a successful dispatch.
	EstimatedRunTime time.Duration `envconfig:"WORKER_ESTIMATED_RUN_TIME" default:"3m"`
}

// AffiliateConfig holds partner identifiers for booking deep links.
type AffiliateConfig struct {
	EnableAffiliates bool                `envconfig:"ENABLE_AFFILIATES" default:"false"`
	AviasalesMarker  string              `envconfig:"AVIASALES_MARKER"`
	HotellookPartner string              `envconfig:"TP_P_HOTELLOOK"`
	HotelProvider    types.HotelProvider `envconfig:"HOTEL_PROVIDER" default:"hotellook" validate:"oneof=hotellook booking"`
	EnableHotelLinks bool                `envconfig:"ENABLE_HOTEL_CTA" default:"false"`
	Locale           string              `envconfig:"AFFILIATE_LOCALE" default:"en_US"`
}

// SecurityConfig holds admin access settings.
type SecurityConfig struct {
	// bcrypt hash of the admin bearer key.
	AdminAPIKeyHash SecretString `envconfig:"ADMIN_API_KEY_HASH" validate:"required"`
}

// ObservabilityConfig holds metrics settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"SurfAlert"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// SweepConfig tunes the scheduled sweep.
type SweepConfig struct {
	Concurrency int `envconfig:"SWEEP_CONCURRENCY" default:"8" validate:"min=1,max=64"`
	MaxAlerts   int `envconfig:"SWEEP_MAX_ALERTS" default:"500" validate:"min=1"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	ErrValidation    ConfigErrorType = "VALIDATION_FAILED"
	ErrParsing       ConfigErrorType = "PARSING_FAILED"
)
