package enums

import "fmt"

// LedgerEntryType names the causal settlement event behind a balance mutation.
type LedgerEntryType string

const (
	LedgerEntryCheckoutDebit LedgerEntryType = "checkout_debit"
	LedgerEntryRefundCredit  LedgerEntryType = "refund_credit"
	LedgerEntrySaleCredit    LedgerEntryType = "sale_credit"
	LedgerEntryAdjustment    LedgerEntryType = "adjustment"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryCheckoutDebit,
	LedgerEntryRefundCredit,
	LedgerEntrySaleCredit,
	LedgerEntryAdjustment,
}

// String implements fmt.Stringer.
func (t LedgerEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LedgerEntryType.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
