package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewReferralCode generates a short shareable referral code.
func NewReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// NewTransactionReference generates a unique reference for a ledger record.
func NewTransactionReference() string {
	return "TXN-" + uuid.New().String()
}
