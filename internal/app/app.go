// Package app assembles the alert service from configuration. Both the API
// server and the sweeper build the same object graph.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"surfalert/internal/affiliates"
	"surfalert/internal/alerts"
	"surfalert/internal/config"
	"surfalert/internal/cooldown"
	"surfalert/internal/db"
	"surfalert/internal/external"
	"surfalert/internal/queue"
	"surfalert/internal/telemetry"
	"surfalert/internal/types"
)

// App holds the long-lived components of a process.
type App struct {
	Pool    *pgxpool.Pool
	Alerts  *db.AlertRuleRepository
	Service *alerts.Service
	Metrics telemetry.Recorder
}

// New connects to the database and AWS and wires the service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	awsCfg, err := loadAWS(ctx, cfg.AWS)
	if err != nil {
		pool.Close()
		return nil, err
	}

	dispatcher, err := NewDispatcher(cfg, awsCfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var recorder telemetry.Recorder = telemetry.NopRecorder{}
	if cfg.Observability.EnableMetrics {
		recorder = telemetry.NewCloudWatchRecorder(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, logger)
	}

	alertRepo := db.NewAlertRuleRepository(pool)
	svc := alerts.NewService(alerts.Deps{
		Alerts:           alertRepo,
		Forecasts:        db.NewForecastCacheRepository(pool),
		Prices:           db.NewPriceCacheRepository(pool),
		Gate:             cooldown.NewGate(alertRepo, logger),
		Dispatcher:       dispatcher,
		Links:            affiliates.NewBuilder(cfg.Affiliates),
		Metrics:          recorder,
		Clock:            types.RealClock{},
		Logger:           logger,
		EstimatedRunTime: cfg.Worker.EstimatedRunTime,
	})

	return &App{Pool: pool, Alerts: alertRepo, Service: svc, Metrics: recorder}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// NewDispatcher returns the worker transport selected by
// cfg.Worker.DispatchMode.
func NewDispatcher(cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) (alerts.Dispatcher, error) {
	switch cfg.Worker.DispatchMode {
	case types.DispatchModeSQS, "":
		return queue.NewSQSDispatcher(sqs.NewFromConfig(awsCfg), cfg.Worker.QueueURL, logger), nil
	case types.DispatchModeGitHub:
		client := external.NewBaseClient(&http.Client{Timeout: cfg.Server.RequestTimeout}, "github-actions",
			external.DefaultRetryPolicy(), cfg.Service+"/"+cfg.Build.Version)
		return external.NewWorkflowDispatcher(client, cfg.Worker, logger), nil
	default:
		return nil, fmt.Errorf("unknown worker dispatch mode %q", cfg.Worker.DispatchMode)
	}
}

func loadAWS(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.EndpointURL != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(c.EndpointURL))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}
