// Package tests holds the end-to-end scenarios. Each file registers its
// scenarios with the runner from init.
package tests

import (
	"context"
	"fmt"

	"github.com/cornjacket/item-pipeline/e2e/client"
	"github.com/cornjacket/item-pipeline/e2e/runner"
)

func init() {
	runner.Add(runner.Scenario{
		Name:    "health",
		Summary: "ingestion and query report healthy",
		Run:     health,
	})
}

func health(ctx context.Context, fx *runner.Fixture) error {
	if err := client.CheckHealth(ctx, fx.API.IngestionURL); err != nil {
		return fmt.Errorf("ingestion: %w", err)
	}
	if err := client.CheckHealth(ctx, fx.API.QueryURL); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}
