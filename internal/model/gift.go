package model

import "time"

// GiftCode is an admin-issued bonus code. CurrentUses only grows and never
// exceeds MaxUses; each user may redeem a given code at most once.
type GiftCode struct {
	Code         string    `json:"code"`
	RewardAmount int64     `json:"reward_amount"`
	MaxUses      int       `json:"max_uses"`
	CurrentUses  int       `json:"current_uses"`
	ExpiryDate   time.Time `json:"expiry_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateGiftCodeRequest is used by admins to issue a code
type CreateGiftCodeRequest struct {
	Code         string    `json:"code"`
	RewardAmount int64     `json:"reward_amount" binding:"required,gt=0"`
	MaxUses      int       `json:"max_uses" binding:"required,gt=0"`
	ExpiryDate   time.Time `json:"expiry_date" binding:"required"`
}

type RedeemGiftRequest struct {
	Code string `json:"code" binding:"required"`
}
