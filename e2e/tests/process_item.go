package tests

import (
	"context"
	"fmt"

	"github.com/cornjacket/item-pipeline/e2e/client"
	"github.com/cornjacket/item-pipeline/e2e/runner"
)

func init() {
	runner.Add(runner.Scenario{
		Name:    "process-item",
		Summary: "POST /process, then the worker marks the item processed",
		Run:     processItem,
	})
}

func processItem(ctx context.Context, fx *runner.Fixture) error {
	id := fx.ItemID("widget")

	resp, err := client.ProcessItem(ctx, fx.API, &client.ProcessRequest{ID: id, Name: "E2E Widget"})
	if err != nil {
		return fmt.Errorf("failed to process item: %w", err)
	}
	if !resp.Success || resp.Message != "initialized" {
		return fmt.Errorf("expected initialized, got success=%t message=%q", resp.Success, resp.Message)
	}
	if resp.ItemID == nil || *resp.ItemID != id {
		return fmt.Errorf("expected item_id %s, got %v", id, resp.ItemID)
	}

	it, err := fx.AwaitStatus(ctx, id, "processed")
	if err != nil {
		return err
	}
	if it.Name != "E2E Widget" {
		return fmt.Errorf("expected name E2E Widget, got %q", it.Name)
	}
	return nil
}
