package enums

import "fmt"

// KYCStatus tracks a shop's identity verification state. Only approved
// shops may receive settlement credits or fulfill orders.
type KYCStatus string

const (
	KYCStatusPendingVerification KYCStatus = "pending_verification"
	KYCStatusApproved            KYCStatus = "approved"
	KYCStatusRejected            KYCStatus = "rejected"
)

var validKYCStatuses = []KYCStatus{
	KYCStatusPendingVerification,
	KYCStatusApproved,
	KYCStatusRejected,
}

// String implements fmt.Stringer.
func (k KYCStatus) String() string {
	return string(k)
}

// IsValid reports whether the value is a known KYCStatus.
func (k KYCStatus) IsValid() bool {
	for _, candidate := range validKYCStatuses {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseKYCStatus converts raw input into a KYCStatus.
func ParseKYCStatus(value string) (KYCStatus, error) {
	for _, candidate := range validKYCStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid kyc status %q", value)
}
