package enums

import "fmt"

// NotificationEvent names the events published to the notification topic.
type NotificationEvent string

const (
	NotificationEventOrderCompleted    NotificationEvent = "order_completed"
	NotificationEventPayoutCredited    NotificationEvent = "payout_credited"
	NotificationEventSettlementSummary NotificationEvent = "settlement_summary"
	NotificationEventPayoutReleased    NotificationEvent = "payout_released"
)

var validNotificationEvents = []NotificationEvent{
	NotificationEventOrderCompleted,
	NotificationEventPayoutCredited,
	NotificationEventSettlementSummary,
	NotificationEventPayoutReleased,
}

// String implements fmt.Stringer.
func (v NotificationEvent) String() string {
	return string(v)
}

// IsValid reports whether the value is a known NotificationEvent.
func (v NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseNotificationEvent converts raw input into a NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}
