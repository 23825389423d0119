package tests

import (
	"context"
	"fmt"

	"github.com/cornjacket/item-pipeline/e2e/client"
	"github.com/cornjacket/item-pipeline/e2e/runner"
)

func init() {
	runner.Add(runner.Scenario{
		Name:    "reprocess-item",
		Summary: "submitting the same id twice converges on processed",
		Run:     reprocessItem,
	})
}

func reprocessItem(ctx context.Context, fx *runner.Fixture) error {
	id := fx.ItemID("repeat")

	for i := 1; i <= 2; i++ {
		if _, err := client.ProcessItem(ctx, fx.API, &client.ProcessRequest{ID: id, Name: "Repeat"}); err != nil {
			return fmt.Errorf("submission %d failed: %w", i, err)
		}
		if _, err := fx.AwaitStatus(ctx, id, "processed"); err != nil {
			return fmt.Errorf("submission %d: %w", i, err)
		}
	}
	return nil
}
