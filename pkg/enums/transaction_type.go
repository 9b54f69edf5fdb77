package enums

import "fmt"

// TransactionType is the direction of a financial transaction row.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeCredit,
	TransactionTypeDebit,
}

// String implements fmt.Stringer.
func (v TransactionType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known TransactionType.
func (v TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
