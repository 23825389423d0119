package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cornjacket/item-pipeline/e2e/runner"
	_ "github.com/cornjacket/item-pipeline/e2e/tests" // registers scenarios
)

func main() {
	env := flag.String("env", "local", "Target environment (local, dev, staging)")
	only := flag.String("run", "", "Comma-separated scenarios to run (all if empty)")
	list := flag.Bool("list", false, "List scenarios and exit")
	failFast := flag.Bool("fail-fast", false, "Stop after the first failing scenario")
	timeout := flag.Duration("timeout", 0, "Per-scenario timeout (overrides E2E_TIMEOUT)")
	waitReady := flag.Duration("wait-ready", 0, "Wait up to this long for /health before running")
	flag.Parse()

	selected, err := runner.Select(*only)
	if err != nil {
		exit(err)
	}
	if *list {
		for _, s := range selected {
			fmt.Printf("%-20s %s\n", s.Name, s.Summary)
		}
		return
	}

	target, err := runner.TargetFromEnv(*env)
	if err != nil {
		exit(err)
	}
	opts := runner.OptionsFromEnv()
	opts.FailFast = *failFast
	if *timeout > 0 {
		opts.ScenarioTimeout = *timeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("item pipeline e2e: env=%s ingestion=%s query=%s\n", target.Env, target.IngestionURL, target.QueryURL)

	if *waitReady > 0 {
		if err := runner.WaitReady(ctx, target, *waitReady); err != nil {
			exit(err)
		}
	}

	report := runner.Run(ctx, target, selected, opts)
	if err := report.Write(os.Stdout); err != nil {
		exit(err)
	}
	if report.Failed() > 0 || len(report.Outcomes) < len(selected) {
		os.Exit(1)
	}
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
