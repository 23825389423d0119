package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/cornjacket/item-pipeline/internal/client/externalapi"
	"github.com/cornjacket/item-pipeline/internal/services/ingestion"
	"github.com/cornjacket/item-pipeline/internal/shared/config"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/bus"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Connections are opened once per execution environment and reused
	// across invocations.
	ctx := context.Background()

	items, err := store.Open(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to open item store", "error", err)
		os.Exit(1)
	}
	defer items.Close()

	messageBus, err := bus.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to create message bus", "error", err)
		os.Exit(1)
	}
	defer messageBus.Close()

	api := externalapi.New(cfg.ExternalAPIBaseURL, cfg.ExternalAPITimeout, logger)
	svc := ingestion.NewService(items.Items, api, messageBus, cfg.ExternalAPINotifyPath, logger)

	lambda.Start(ingestion.NewLambdaHandler(svc, logger).Handle)
}

// newLogger writes JSON to stdout at the configured level.
func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
