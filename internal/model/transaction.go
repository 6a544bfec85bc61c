package model

import "time"

const (
	TransactionTypeRecharge   = "recharge"
	TransactionTypeWithdraw   = "withdraw"
	TransactionTypeBonus      = "bonus"
	TransactionTypeInvestment = "investment"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is an append-only ledger record. Status moves pending ->
// completed or pending -> failed, never back. Amount is in paise and is
// always positive; the type determines the sign when replaying balances.
type Transaction struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"user_id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Reference string    `json:"reference"`
	Details   *string   `json:"details,omitempty"`
	UpiID     *string   `json:"upi_id,omitempty"`
	UTR       *string   `json:"utr,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Finalized reports whether the status can no longer change.
func (t *Transaction) Finalized() bool {
	return t.Status != TransactionStatusPending
}

// RechargeRequest declares an external payment the user claims to have made
type RechargeRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	UTR    string `json:"utr" binding:"required"`
}

// WithdrawRequest asks for a payout to the given UPI handle
type WithdrawRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	UpiID  string `json:"upi_id" binding:"required"`
}

// TransactionFilters contains filter parameters for transaction queries
type TransactionFilters struct {
	UserID *int
	Type   *string
	Status *string
}
