package service

import "errors"

// Validation errors returned to callers. Handlers map these to HTTP status;
// none of them leaves the ledger partially applied.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientFunds   = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("amount below platform minimum")
	ErrWithdrawalsDisabled = errors.New("withdrawals are currently disabled")
	ErrCodeNotFound        = errors.New("gift code not found")
	ErrCodeExpired         = errors.New("gift code has expired")
	ErrCodeExhausted       = errors.New("gift code has no uses remaining")
	ErrAlreadyRedeemed     = errors.New("gift code already redeemed")
	ErrInvalidState        = errors.New("transaction is not in a confirmable state")
)
