package enums

import "fmt"

// EarningsStatus tracks whether platform earnings for a seller have been released.
type EarningsStatus string

const (
	EarningsStatusPending  EarningsStatus = "pending"
	EarningsStatusReleased EarningsStatus = "released"
)

var validEarningsStatuses = []EarningsStatus{
	EarningsStatusPending,
	EarningsStatusReleased,
}

// String implements fmt.Stringer.
func (v EarningsStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known EarningsStatus.
func (v EarningsStatus) IsValid() bool {
	for _, candidate := range validEarningsStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseEarningsStatus converts raw input into an EarningsStatus.
func ParseEarningsStatus(value string) (EarningsStatus, error) {
	for _, candidate := range validEarningsStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid earnings status %q", value)
}
