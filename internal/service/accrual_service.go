package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"power_ledger/internal/model"
	"power_ledger/internal/monitoring"
	"power_ledger/internal/repository"
	"power_ledger/internal/utils"
)

// AccrualService credits daily income for active investments. The whole
// engine is "advance the watermark to now, compute the delta, apply once":
// invoking it any number of times within the same day credits nothing after
// the first, which is what makes both the on-demand trigger and the
// background sweeper safe to run concurrently.
type AccrualService interface {
	CollectUser(ctx context.Context, userID int) error
	Sweep(ctx context.Context) (int, error)
}

type accrualService struct {
	db              repository.TxStarter
	users           repository.UserRepository
	investments     repository.InvestmentRepository
	transactions    repository.TransactionRepository
	clock           utils.Clock
	referralPercent int
}

// NewAccrualService creates a new AccrualService
func NewAccrualService(db repository.TxStarter, users repository.UserRepository, investments repository.InvestmentRepository,
	transactions repository.TransactionRepository, clock utils.Clock, referralPercent int) AccrualService {
	return &accrualService{
		db:              db,
		users:           users,
		investments:     investments,
		transactions:    transactions,
		clock:           clock,
		referralPercent: referralPercent,
	}
}

// accruableDays returns the number of whole uncredited days between the
// watermark and min(now, expiry). Zero means nothing is owed yet.
func accruableDays(lastCollection, expiry, now time.Time) int {
	end := now
	if expiry.Before(end) {
		end = expiry
	}
	if !end.After(lastCollection) {
		return 0
	}
	return int(end.Sub(lastCollection) / (24 * time.Hour))
}

// CollectUser credits everything owed to one account's investments. Used as
// the on-demand trigger when a balance is displayed.
func (s *accrualService) CollectUser(ctx context.Context, userID int) error {
	due, err := s.investments.FindDueByUser(ctx, userID, s.clock.Now())
	if err != nil {
		return err
	}
	for i := range due {
		if err := s.collect(ctx, &due[i]); err != nil {
			return err
		}
	}
	return nil
}

// Sweep credits everything owed across all accounts and returns the number
// of investments credited. Driven by the background scheduler; a failure on
// one investment does not stop the rest.
func (s *accrualService) Sweep(ctx context.Context) (int, error) {
	due, err := s.investments.FindAllDue(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	credited := 0
	for i := range due {
		if err := s.collect(ctx, &due[i]); err != nil {
			log.Printf("accrual sweep: investment %d skipped: %v", due[i].ID, err)
			continue
		}
		credited++
	}
	return credited, nil
}

// collect applies one accrual tick to one investment inside a transaction.
// The watermark advance is compare-and-set against the value the days were
// computed from, so a concurrent tick makes this one roll back instead of
// double-crediting.
func (s *accrualService) collect(ctx context.Context, inv *model.Investment) error {
	now := s.clock.Now()
	days := accruableDays(inv.LastCollectionDate, inv.ExpiryDate, now)
	if days == 0 {
		return nil
	}
	amount := int64(days) * inv.DailyReturn

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin accrual transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	users := s.users.WithTx(tx)
	investments := s.investments.WithTx(tx)
	transactions := s.transactions.WithTx(tx)

	newWatermark := inv.LastCollectionDate.Add(time.Duration(days) * 24 * time.Hour)
	if err := investments.AdvanceWatermark(ctx, inv.ID, inv.LastCollectionDate, newWatermark); err != nil {
		if errors.Is(err, repository.ErrWatermarkMoved) {
			return nil // another tick got here first
		}
		return err
	}

	user, err := users.UpdateBalance(ctx, inv.UserID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit daily income: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := users.AddEarningsTotal(ctx, inv.UserID, amount); err != nil {
		return err
	}

	details := fmt.Sprintf("Daily income: %s x %d day(s)", inv.ProductName, days)
	record := &model.Transaction{
		UserID:    inv.UserID,
		Type:      model.TransactionTypeBonus,
		Amount:    amount,
		Status:    model.TransactionStatusCompleted,
		Reference: utils.NewTransactionReference(),
		Details:   &details,
		CreatedAt: now,
	}
	if err := transactions.Create(ctx, record); err != nil {
		return err
	}

	if err := creditReferralCommission(ctx, users, transactions, user, amount, s.referralPercent, "daily income", now); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit accrual: %w", err)
	}

	inv.LastCollectionDate = newWatermark
	monitoring.LedgerOperationsTotal.WithLabelValues("accrual", "completed").Inc()
	return nil
}
