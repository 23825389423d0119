//go:build integration

package testutil

import (
	"os"
	"strings"
)

const defaultBrokers = "localhost:9092"

// TestBrokers returns the Redpanda broker addresses for integration tests.
// Override with INTEGRATION_REDPANDA_BROKERS environment variable.
func TestBrokers() []string {
	brokers := os.Getenv("INTEGRATION_REDPANDA_BROKERS")
	if brokers == "" {
		brokers = defaultBrokers
	}
	return strings.Split(brokers, ",")
}
