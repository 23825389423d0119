package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cornjacket/item-pipeline/e2e/client"
)

// Target is the deployment a run is pointed at.
type Target struct {
	Env          string
	IngestionURL string
	QueryURL     string
}

var knownTargets = map[string]Target{
	"local":   {IngestionURL: "http://localhost:8080", QueryURL: "http://localhost:8081"},
	"dev":     {IngestionURL: "https://items-dev.cornjacket.com", QueryURL: "https://items-query-dev.cornjacket.com"},
	"staging": {IngestionURL: "https://items-staging.cornjacket.com", QueryURL: "https://items-query-staging.cornjacket.com"},
}

// TargetFromEnv resolves the named environment. E2E_INGESTION_URL and
// E2E_QUERY_URL override either endpoint; an unknown env must supply both.
func TargetFromEnv(env string) (Target, error) {
	t := knownTargets[env]
	t.Env = env
	if url := os.Getenv("E2E_INGESTION_URL"); url != "" {
		t.IngestionURL = url
	}
	if url := os.Getenv("E2E_QUERY_URL"); url != "" {
		t.QueryURL = url
	}
	if t.IngestionURL == "" || t.QueryURL == "" {
		return Target{}, fmt.Errorf("no endpoints for env %q: set E2E_INGESTION_URL and E2E_QUERY_URL", env)
	}
	return t, nil
}

func (t Target) api() *client.Config {
	return &client.Config{IngestionURL: t.IngestionURL, QueryURL: t.QueryURL}
}

// WaitReady polls both health endpoints until they answer or wait elapses.
func WaitReady(ctx context.Context, t Target, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		err := healthy(ctx, t)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("pipeline not ready after %s: %w", wait, err)
		case <-ticker.C:
		}
	}
}

func healthy(ctx context.Context, t Target) error {
	if err := client.CheckHealth(ctx, t.IngestionURL); err != nil {
		return fmt.Errorf("ingestion: %w", err)
	}
	if err := client.CheckHealth(ctx, t.QueryURL); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}
