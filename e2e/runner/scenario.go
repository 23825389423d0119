// Package runner drives end-to-end scenarios against a running pipeline.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cornjacket/item-pipeline/e2e/client"
)

// Scenario is one end-to-end check against a deployed pipeline.
type Scenario struct {
	Name    string
	Summary string
	Run     func(ctx context.Context, fx *Fixture) error
}

// Fixture is the per-scenario view of the target. Item ids it hands out are
// unique to the run and the scenario so reruns never collide on stored items.
type Fixture struct {
	API *client.Config

	// Settle bounds how long a scenario waits for the worker to reach a status.
	Settle time.Duration

	runID    string
	scenario string
	seq      int
}

// ItemID returns a fresh id scoped to this run and scenario.
func (fx *Fixture) ItemID(label string) string {
	fx.seq++
	return fmt.Sprintf("e2e-%s-%s-%s-%d", fx.runID, fx.scenario, label, fx.seq)
}

// AwaitStatus polls the query API until the item reaches status.
func (fx *Fixture) AwaitStatus(ctx context.Context, id, status string) (*client.Item, error) {
	return client.WaitForStatus(ctx, fx.API, id, status, fx.Settle)
}

var scenarios []Scenario

// Add registers a scenario. Scenarios run in registration order.
func Add(s Scenario) {
	for _, existing := range scenarios {
		if existing.Name == s.Name {
			panic(fmt.Sprintf("scenario %q registered twice", s.Name))
		}
	}
	scenarios = append(scenarios, s)
}

// Select returns every registered scenario, or only the named ones when
// names is a comma-separated list.
func Select(names string) ([]Scenario, error) {
	if names == "" {
		return append([]Scenario(nil), scenarios...), nil
	}

	var out []Scenario
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		s, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario: %s", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func lookup(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

func newRunID() string {
	return uuid.NewString()[:8]
}
