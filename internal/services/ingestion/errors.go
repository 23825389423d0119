package ingestion

import "fmt"

// ApplicationError is the single failure ProcessEvent reports.
// The cause stays reachable through errors.Is and errors.As.
type ApplicationError struct {
	Op     string
	ItemID string
	Err    error
}

func (e *ApplicationError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("failed to process event: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to process event %s: %s: %v", e.ItemID, e.Op, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}
