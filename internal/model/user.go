package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the ledger. All monetary fields are in
// paise (smallest currency unit).
type User struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	PasswordHash    string    `json:"-"` // Do not expose password hash in JSON responses
	Role            string    `json:"role"`
	Balance         int64     `json:"balance"`
	TotalInvestment int64     `json:"total_investment"`
	TotalEarnings   int64     `json:"total_earnings"`
	ReferralCode    string    `json:"referral_code"`
	ReferredBy      *int      `json:"referred_by,omitempty"` // ID of the referrer, single-hop parent pointer
	Referrals       int       `json:"referrals"`
	CreatedAt       time.Time `json:"created_at"`
}
