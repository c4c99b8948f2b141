// Package main is the entry point for the scheduled sweep Lambda.
//
// An EventBridge schedule invokes it with a sweeper.Input payload. With
// APP_ENV=local a single event is read from stdin instead:
//
//	echo '{"dry_run":true}' | go run ./cmd/sweeper
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"surfalert/internal/app"
	"surfalert/internal/config"
	"surfalert/internal/sweeper"
	"surfalert/internal/types"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := run(logger); err != nil {
		logger.Error("sweeper failed", "error", err)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup happens before main exits.
func run(logger *slog.Logger) error {
	logger.Info("sweeper initializing (cold start)")

	cfg, err := config.Load(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	s := sweeper.New(a.Alerts, a.Service, a.Metrics, types.RealClock{}, logger, cfg.Sweep.Concurrency, cfg.Sweep.MaxAlerts)

	if os.Getenv("APP_ENV") == "local" {
		logger.Info("APP_ENV=local: reading event from stdin")
		return runLocal(context.Background(), s, os.Stdin, os.Stdout)
	}

	lambda.Start(s.Run)
	return nil
}

// runLocal runs one sweep for the event in r and writes the summary to w.
// Empty input is a default sweep.
func runLocal(ctx context.Context, s *sweeper.Sweeper, r io.Reader, w io.Writer) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	var in sweeper.Input
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &in); err != nil {
			return fmt.Errorf("decoding event: %w", err)
		}
	}
	sum, err := s.Run(ctx, in)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(sum)
}
