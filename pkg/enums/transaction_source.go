package enums

import "fmt"

// TransactionSource records what produced a financial transaction row.
type TransactionSource string

const (
	TransactionSourceOrderSettlement TransactionSource = "order_settlement"
	TransactionSourceWithdrawal      TransactionSource = "withdrawal"
	TransactionSourceRefund          TransactionSource = "refund"
)

var validTransactionSources = []TransactionSource{
	TransactionSourceOrderSettlement,
	TransactionSourceWithdrawal,
	TransactionSourceRefund,
}

// String implements fmt.Stringer.
func (v TransactionSource) String() string {
	return string(v)
}

// IsValid reports whether the value is a known TransactionSource.
func (v TransactionSource) IsValid() bool {
	for _, candidate := range validTransactionSources {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseTransactionSource converts raw input into a TransactionSource.
func ParseTransactionSource(value string) (TransactionSource, error) {
	for _, candidate := range validTransactionSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction source %q", value)
}
