package enums

import "fmt"

// WalletEntryKind names the mutation recorded against a wallet.
type WalletEntryKind string

const (
	WalletEntryKindPendingCredit WalletEntryKind = "pending_credit"
	WalletEntryKindRelease       WalletEntryKind = "release"
	WalletEntryKindDebit         WalletEntryKind = "debit"
	WalletEntryKindCancel        WalletEntryKind = "cancel"
)

var validWalletEntryKinds = []WalletEntryKind{
	WalletEntryKindPendingCredit,
	WalletEntryKindRelease,
	WalletEntryKindDebit,
	WalletEntryKindCancel,
}

// String implements fmt.Stringer.
func (k WalletEntryKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known WalletEntryKind.
func (k WalletEntryKind) IsValid() bool {
	for _, candidate := range validWalletEntryKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseWalletEntryKind converts raw input into a WalletEntryKind.
func ParseWalletEntryKind(value string) (WalletEntryKind, error) {
	for _, candidate := range validWalletEntryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet entry kind %q", value)
}
