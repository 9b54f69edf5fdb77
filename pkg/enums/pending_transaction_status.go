package enums

import "fmt"

// PendingTransactionStatus tracks an entry in a wallet's pending queue.
type PendingTransactionStatus string

const (
	PendingTransactionStatusPending   PendingTransactionStatus = "pending"
	PendingTransactionStatusReleased  PendingTransactionStatus = "released"
	PendingTransactionStatusCancelled PendingTransactionStatus = "cancelled"
)

var validPendingTransactionStatuses = []PendingTransactionStatus{
	PendingTransactionStatusPending,
	PendingTransactionStatusReleased,
	PendingTransactionStatusCancelled,
}

// String implements fmt.Stringer.
func (v PendingTransactionStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PendingTransactionStatus.
func (v PendingTransactionStatus) IsValid() bool {
	for _, candidate := range validPendingTransactionStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePendingTransactionStatus converts raw input into a PendingTransactionStatus.
func ParsePendingTransactionStatus(value string) (PendingTransactionStatus, error) {
	for _, candidate := range validPendingTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pending transaction status %q", value)
}
