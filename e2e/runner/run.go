package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"
)

// DefaultScenarioTimeout bounds one scenario when E2E_TIMEOUT is unset.
const DefaultScenarioTimeout = 30 * time.Second

// Options tune a run.
type Options struct {
	// ScenarioTimeout bounds each scenario, not the whole run.
	ScenarioTimeout time.Duration
	// Settle is handed to fixtures for status polling.
	Settle time.Duration
	// FailFast stops after the first failing scenario.
	FailFast bool
}

// OptionsFromEnv reads E2E_TIMEOUT and E2E_SETTLE, falling back to defaults.
func OptionsFromEnv() Options {
	return Options{
		ScenarioTimeout: envDuration("E2E_TIMEOUT", DefaultScenarioTimeout),
		Settle:          envDuration("E2E_SETTLE", 10*time.Second),
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

// Outcome is the result of one scenario.
type Outcome struct {
	Scenario string
	Elapsed  time.Duration
	Err      error
}

// Report collects the outcomes of one run.
type Report struct {
	RunID    string
	Outcomes []Outcome
}

// Failed counts failing scenarios.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Write renders one row per scenario followed by a totals line.
func (r *Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	var total time.Duration
	for _, o := range r.Outcomes {
		total += o.Elapsed
		verdict, detail := "PASS", ""
		if o.Err != nil {
			verdict, detail = "FAIL", o.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", verdict, o.Scenario, o.Elapsed.Round(time.Millisecond), detail)
	}
	fmt.Fprintf(tw, "\nrun %s\t%d scenarios\t%d failed\t%s\n",
		r.RunID, len(r.Outcomes), r.Failed(), total.Round(time.Millisecond))
	return tw.Flush()
}

// Run executes scenarios in order against t. Each scenario gets its own
// fixture and deadline. A cancelled ctx stops the run between scenarios.
func Run(ctx context.Context, t Target, list []Scenario, opts Options) *Report {
	if opts.ScenarioTimeout <= 0 {
		opts.ScenarioTimeout = DefaultScenarioTimeout
	}
	report := &Report{RunID: newRunID()}

	for _, s := range list {
		if ctx.Err() != nil {
			break
		}
		outcome := runOne(ctx, t, s, report.RunID, opts)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Err != nil && opts.FailFast {
			break
		}
	}
	return report
}

func runOne(ctx context.Context, t Target, s Scenario, runID string, opts Options) (out Outcome) {
	out.Scenario = s.Name
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic: %v", r)
		}
		out.Elapsed = time.Since(start)
	}()

	ctx, cancel := context.WithTimeout(ctx, opts.ScenarioTimeout)
	defer cancel()

	fx := &Fixture{API: t.api(), Settle: opts.Settle, runID: runID, scenario: s.Name}
	out.Err = s.Run(ctx, fx)
	return out
}
