package item

import "fmt"

// Status is the lifecycle state of an Item.
// The zero value is not a valid status; construct one with ParseStatus or use
// the package-level values.
type Status struct {
	value string
}

var (
	StatusPending     = Status{"pending"}
	StatusInitialized = Status{"initialized"}
	StatusProcessed   = Status{"processed"}
	StatusFailed      = Status{"failed"}
)

var validStatuses = map[string]Status{
	StatusPending.value:     StatusPending,
	StatusInitialized.value: StatusInitialized,
	StatusProcessed.value:   StatusProcessed,
	StatusFailed.value:      StatusFailed,
}

// ParseStatus converts a raw string into a Status.
// Membership is checked, sequencing is not: any valid value may follow any other.
func ParseStatus(s string) (Status, error) {
	status, ok := validStatuses[s]
	if !ok {
		return Status{}, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// String returns the raw status value.
func (s Status) String() string {
	return s.value
}

// IsValid reports whether s is one of the enumerated statuses.
func (s Status) IsValid() bool {
	_, ok := validStatuses[s.value]
	return ok
}
