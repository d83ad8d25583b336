package enums

import "fmt"

// LedgerOwnerType names which balance pool a ledger operation targets.
// A user's personal balance and their shop's balance are distinct ledgers
// and are never addressed through the same owner.
type LedgerOwnerType string

const (
	LedgerOwnerUser LedgerOwnerType = "user"
	LedgerOwnerShop LedgerOwnerType = "shop"
)

var validLedgerOwnerTypes = []LedgerOwnerType{
	LedgerOwnerUser,
	LedgerOwnerShop,
}

// String implements fmt.Stringer.
func (o LedgerOwnerType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known LedgerOwnerType.
func (o LedgerOwnerType) IsValid() bool {
	for _, candidate := range validLedgerOwnerTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseLedgerOwnerType converts raw input into a LedgerOwnerType.
func ParseLedgerOwnerType(value string) (LedgerOwnerType, error) {
	for _, candidate := range validLedgerOwnerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger owner type %q", value)
}
