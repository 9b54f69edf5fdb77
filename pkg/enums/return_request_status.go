package enums

import "fmt"

// ReturnRequestStatus maps to the return_request_status column.
type ReturnRequestStatus string

const (
	ReturnRequestStatusPending        ReturnRequestStatus = "pending"
	ReturnRequestStatusApproved       ReturnRequestStatus = "approved"
	ReturnRequestStatusProcessing     ReturnRequestStatus = "processing"
	ReturnRequestStatusReadyForPickup ReturnRequestStatus = "ready_for_pickup"
	ReturnRequestStatusReceived       ReturnRequestStatus = "received"
	ReturnRequestStatusRejected       ReturnRequestStatus = "rejected"
	ReturnRequestStatusFinished       ReturnRequestStatus = "finished"
)

var validReturnRequestStatuses = []ReturnRequestStatus{
	ReturnRequestStatusPending,
	ReturnRequestStatusApproved,
	ReturnRequestStatusProcessing,
	ReturnRequestStatusReadyForPickup,
	ReturnRequestStatusReceived,
	ReturnRequestStatusRejected,
	ReturnRequestStatusFinished,
}

// String implements fmt.Stringer.
func (v ReturnRequestStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ReturnRequestStatus.
func (v ReturnRequestStatus) IsValid() bool {
	for _, candidate := range validReturnRequestStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseReturnRequestStatus converts raw input into a ReturnRequestStatus.
func ParseReturnRequestStatus(value string) (ReturnRequestStatus, error) {
	for _, candidate := range validReturnRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return request status %q", value)
}
