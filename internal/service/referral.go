package service

import (
	"context"
	"fmt"
	"time"

	"power_ledger/internal/model"
	"power_ledger/internal/repository"
	"power_ledger/internal/utils"
)

// creditReferralCommission pays the single-hop referrer a percentage of a
// downstream purchase or accrual amount. Called exactly once per downstream
// event, inside the same transaction as that event, so a credit can never be
// duplicated or orphaned. A missing referrer or a zero commission is a
// no-op.
func creditReferralCommission(ctx context.Context, users repository.UserRepository, transactions repository.TransactionRepository,
	source *model.User, base int64, percent int, event string, now time.Time) error {

	if source.ReferredBy == nil || percent <= 0 {
		return nil
	}
	commission := base * int64(percent) / 100
	if commission <= 0 {
		return nil
	}

	referrer, err := users.UpdateBalance(ctx, *source.ReferredBy, commission)
	if err != nil {
		return fmt.Errorf("failed to credit referrer: %w", err)
	}
	if referrer == nil {
		// Referrer account gone; accounts are archived rather than deleted,
		// so this only happens on historical data. Skip the commission.
		return nil
	}
	if err := users.AddEarningsTotal(ctx, referrer.ID, commission); err != nil {
		return err
	}

	details := fmt.Sprintf("Team commission: %s by %s", event, source.Name)
	t := &model.Transaction{
		UserID:    referrer.ID,
		Type:      model.TransactionTypeBonus,
		Amount:    commission,
		Status:    model.TransactionStatusCompleted,
		Reference: utils.NewTransactionReference(),
		Details:   &details,
		CreatedAt: now,
	}
	if err := transactions.Create(ctx, t); err != nil {
		return fmt.Errorf("failed to record referral commission: %w", err)
	}
	return nil
}
