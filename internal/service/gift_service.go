package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"power_ledger/internal/model"
	"power_ledger/internal/monitoring"
	"power_ledger/internal/repository"
	"power_ledger/internal/utils"
)

// GiftService redeems gift codes and lets admins issue them. Redemption is
// a single atomic check-and-increment: the code row is locked, the per-user
// redemption record is inserted (its unique constraint is the once-per-user
// check), and the use counter is bumped conditionally so at most MaxUses
// redemptions ever succeed.
type GiftService interface {
	RedeemGift(ctx context.Context, userID int, code string) (*model.Transaction, error)
	CreateGiftCode(ctx context.Context, req model.CreateGiftCodeRequest) (*model.GiftCode, error)
	ListGiftCodes(ctx context.Context) ([]model.GiftCode, error)
}

type giftService struct {
	db           repository.TxStarter
	users        repository.UserRepository
	gifts        repository.GiftCodeRepository
	transactions repository.TransactionRepository
	clock        utils.Clock
}

// NewGiftService creates a new GiftService
func NewGiftService(db repository.TxStarter, users repository.UserRepository, gifts repository.GiftCodeRepository,
	transactions repository.TransactionRepository, clock utils.Clock) GiftService {
	return &giftService{
		db:           db,
		users:        users,
		gifts:        gifts,
		transactions: transactions,
		clock:        clock,
	}
}

func (s *giftService) RedeemGift(ctx context.Context, userID int, code string) (*model.Transaction, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrCodeNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin redemption: %w", err)
	}
	defer tx.Rollback(ctx)

	gifts := s.gifts.WithTx(tx)

	// Lock order: gift code row first, account second.
	gift, err := gifts.FindByCodeForUpdate(ctx, code)
	if err != nil {
		return nil, err
	}
	if gift == nil {
		return nil, ErrCodeNotFound
	}
	if !s.clock.Now().Before(gift.ExpiryDate) {
		return nil, ErrCodeExpired
	}
	if gift.CurrentUses >= gift.MaxUses {
		return nil, ErrCodeExhausted
	}

	if err := gifts.InsertRedemption(ctx, code, userID); err != nil {
		if errors.Is(err, repository.ErrAlreadyRedeemed) {
			return nil, ErrAlreadyRedeemed
		}
		return nil, err
	}
	ok, err := gifts.IncrementUses(ctx, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeExhausted
	}

	users := s.users.WithTx(tx)
	user, err := users.UpdateBalance(ctx, userID, gift.RewardAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit gift reward: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := users.AddEarningsTotal(ctx, userID, gift.RewardAmount); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Gift code %s", code)
	record := &model.Transaction{
		UserID:    userID,
		Type:      model.TransactionTypeBonus,
		Amount:    gift.RewardAmount,
		Status:    model.TransactionStatusCompleted,
		Reference: utils.NewTransactionReference(),
		Details:   &details,
		CreatedAt: s.clock.Now(),
	}
	if err := s.transactions.WithTx(tx).Create(ctx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit redemption: %w", err)
	}
	monitoring.LedgerOperationsTotal.WithLabelValues("gift_redeem", "completed").Inc()
	return record, nil
}

// CreateGiftCode issues a new code; an empty code gets a generated one
func (s *giftService) CreateGiftCode(ctx context.Context, req model.CreateGiftCodeRequest) (*model.GiftCode, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		code = utils.NewReferralCode()
	}
	if !req.ExpiryDate.After(s.clock.Now()) {
		return nil, fmt.Errorf("gift code expiry must be in the future")
	}

	gift := &model.GiftCode{
		Code:         code,
		RewardAmount: req.RewardAmount,
		MaxUses:      req.MaxUses,
		ExpiryDate:   req.ExpiryDate.UTC().Truncate(time.Second),
	}
	if err := s.gifts.Create(ctx, gift); err != nil {
		return nil, err
	}
	return gift, nil
}

func (s *giftService) ListGiftCodes(ctx context.Context) ([]model.GiftCode, error) {
	codes, err := s.gifts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gift codes: %w", err)
	}
	return codes, nil
}
