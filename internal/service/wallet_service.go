package service

import (
	"context"
	"errors"
	"fmt"

	"power_ledger/internal/model"
	"power_ledger/internal/monitoring"
	"power_ledger/internal/repository"
	"power_ledger/internal/utils"
)

// WalletService manages the two-phase recharge and withdrawal flows.
//
// The two flows are deliberately asymmetric: a recharge declares an
// external payment and credits only on admin confirmation, while a
// withdrawal debits (holds) the amount at request time because those funds
// are already in the ledger and must not be spendable while the payout is
// pending. A rejected withdrawal refunds exactly the held amount.
type WalletService interface {
	GetUser(ctx context.Context, userID int) (*model.User, error)
	RequestRecharge(ctx context.Context, userID int, amount int64, utr string) (*model.Transaction, error)
	ConfirmRecharge(ctx context.Context, transactionID int64) (*model.Transaction, error)
	RejectRecharge(ctx context.Context, transactionID int64) (*model.Transaction, error)
	RequestWithdraw(ctx context.Context, userID int, amount int64, upiID string) (*model.Transaction, error)
	ApproveWithdraw(ctx context.Context, transactionID int64) (*model.Transaction, error)
	RejectWithdraw(ctx context.Context, transactionID int64) (*model.Transaction, error)
	ListUserTransactions(ctx context.Context, userID int) ([]model.Transaction, error)
	ListTransactions(ctx context.Context, filters model.TransactionFilters) ([]model.Transaction, error)
}

type walletService struct {
	db           repository.TxStarter
	users        repository.UserRepository
	transactions repository.TransactionRepository
	settings     repository.SettingsRepository
	clock        utils.Clock
}

// NewWalletService creates a new WalletService
func NewWalletService(db repository.TxStarter, users repository.UserRepository, transactions repository.TransactionRepository,
	settings repository.SettingsRepository, clock utils.Clock) WalletService {
	return &walletService{
		db:           db,
		users:        users,
		transactions: transactions,
		settings:     settings,
		clock:        clock,
	}
}

func (s *walletService) GetUser(ctx context.Context, userID int) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// RequestRecharge records a pending deposit claim identified by its UTR.
// No funds move until an administrator confirms the payment landed.
func (s *walletService) RequestRecharge(ctx context.Context, userID int, amount int64, utr string) (*model.Transaction, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if amount < settings.MinRecharge {
		return nil, ErrBelowMinimum
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	t := &model.Transaction{
		UserID:    userID,
		Type:      model.TransactionTypeRecharge,
		Amount:    amount,
		Status:    model.TransactionStatusPending,
		Reference: utils.NewTransactionReference(),
		UTR:       &utr,
		CreatedAt: s.clock.Now(),
	}
	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, err
	}
	monitoring.LedgerOperationsTotal.WithLabelValues("recharge_request", "pending").Inc()
	return t, nil
}

// ConfirmRecharge credits the balance and completes the record. Confirming
// an already-finalized record is a no-op that returns the record as-is, so
// admin retries can never double-credit.
func (s *walletService) ConfirmRecharge(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	return s.finalizeRecharge(ctx, transactionID, model.TransactionStatusCompleted)
}

// RejectRecharge marks the claim failed without moving funds
func (s *walletService) RejectRecharge(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	return s.finalizeRecharge(ctx, transactionID, model.TransactionStatusFailed)
}

func (s *walletService) finalizeRecharge(ctx context.Context, transactionID int64, status string) (*model.Transaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin recharge adjudication: %w", err)
	}
	defer tx.Rollback(ctx)

	transactions := s.transactions.WithTx(tx)

	// Lock order: transaction row first, account second.
	t, err := transactions.FindByIDForUpdate(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	if t.Type != model.TransactionTypeRecharge {
		return nil, ErrInvalidState
	}
	if t.Finalized() {
		return t, nil // idempotent no-op
	}

	if err := transactions.UpdateStatus(ctx, t.ID, status); err != nil {
		return nil, err
	}
	if status == model.TransactionStatusCompleted {
		user, err := s.users.WithTx(tx).UpdateBalance(ctx, t.UserID, t.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to credit recharge: %w", err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit recharge adjudication: %w", err)
	}

	t.Status = status
	monitoring.LedgerOperationsTotal.WithLabelValues("recharge", status).Inc()
	return t, nil
}

// RequestWithdraw holds the amount immediately and records a pending
// payout. The hold is the atomic balance debit; if it fails nothing was
// written.
func (s *walletService) RequestWithdraw(ctx context.Context, userID int, amount int64, upiID string) (*model.Transaction, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.AllowWithdrawals {
		return nil, ErrWithdrawalsDisabled
	}
	if amount < settings.MinWithdrawal {
		return nil, ErrBelowMinimum
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin withdrawal request: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := s.users.WithTx(tx).UpdateBalance(ctx, userID, -amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to hold withdrawal amount: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	t := &model.Transaction{
		UserID:    userID,
		Type:      model.TransactionTypeWithdraw,
		Amount:    amount,
		Status:    model.TransactionStatusPending,
		Reference: utils.NewTransactionReference(),
		UpiID:     &upiID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.transactions.WithTx(tx).Create(ctx, t); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal request: %w", err)
	}
	monitoring.LedgerOperationsTotal.WithLabelValues("withdraw_request", "pending").Inc()
	return t, nil
}

// ApproveWithdraw completes the payout. The debit already happened at
// request time, so no balance change here.
func (s *walletService) ApproveWithdraw(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	return s.finalizeWithdraw(ctx, transactionID, model.TransactionStatusCompleted)
}

// RejectWithdraw fails the payout and refunds exactly the held amount
func (s *walletService) RejectWithdraw(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	return s.finalizeWithdraw(ctx, transactionID, model.TransactionStatusFailed)
}

func (s *walletService) finalizeWithdraw(ctx context.Context, transactionID int64, status string) (*model.Transaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin withdrawal adjudication: %w", err)
	}
	defer tx.Rollback(ctx)

	transactions := s.transactions.WithTx(tx)

	// Lock order: transaction row first, account second.
	t, err := transactions.FindByIDForUpdate(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	if t.Type != model.TransactionTypeWithdraw {
		return nil, ErrInvalidState
	}
	if t.Finalized() {
		return t, nil // idempotent no-op
	}

	if err := transactions.UpdateStatus(ctx, t.ID, status); err != nil {
		return nil, err
	}
	if status == model.TransactionStatusFailed {
		user, err := s.users.WithTx(tx).UpdateBalance(ctx, t.UserID, t.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to refund withdrawal: %w", err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal adjudication: %w", err)
	}

	t.Status = status
	monitoring.LedgerOperationsTotal.WithLabelValues("withdraw", status).Inc()
	return t, nil
}

func (s *walletService) ListUserTransactions(ctx context.Context, userID int) ([]model.Transaction, error) {
	transactions, err := s.transactions.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user transactions: %w", err)
	}
	return transactions, nil
}

func (s *walletService) ListTransactions(ctx context.Context, filters model.TransactionFilters) ([]model.Transaction, error) {
	transactions, err := s.transactions.FindAll(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}
