package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"power_ledger/internal/model"

	"github.com/jackc/pgx/v5"
)

// ErrAlreadyRedeemed is returned when a (code, user) redemption record
// already exists.
var ErrAlreadyRedeemed = errors.New("gift code already redeemed by user")

const giftColumns = `code, reward_amount, max_uses, current_uses, expiry_date, created_at`

// GiftCodeRepository defines operations for gift codes and the per-user
// redemption set.
type GiftCodeRepository interface {
	WithTx(tx pgx.Tx) GiftCodeRepository
	Create(ctx context.Context, g *model.GiftCode) error
	FindAll(ctx context.Context) ([]model.GiftCode, error)
	FindByCodeForUpdate(ctx context.Context, code string) (*model.GiftCode, error)
	IncrementUses(ctx context.Context, code string) (bool, error)
	InsertRedemption(ctx context.Context, code string, userID int) error
}

type giftCodeRepository struct {
	db Querier
}

// NewGiftCodeRepository creates a new GiftCodeRepository
func NewGiftCodeRepository(db Querier) GiftCodeRepository {
	return &giftCodeRepository{db: db}
}

func (r *giftCodeRepository) WithTx(tx pgx.Tx) GiftCodeRepository {
	return &giftCodeRepository{db: tx}
}

func (r *giftCodeRepository) Create(ctx context.Context, g *model.GiftCode) error {
	sql := `INSERT INTO gift_codes (code, reward_amount, max_uses, current_uses, expiry_date)
            VALUES ($1, $2, $3, 0, $4) RETURNING created_at`
	err := r.db.QueryRow(ctx, sql, g.Code, g.RewardAmount, g.MaxUses, g.ExpiryDate).Scan(&g.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("gift code %q already exists", g.Code)
		}
		return fmt.Errorf("failed to create gift code: %w", err)
	}
	return nil
}

func (r *giftCodeRepository) FindAll(ctx context.Context) ([]model.GiftCode, error) {
	sql := `SELECT ` + giftColumns + ` FROM gift_codes ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query gift codes: %w", err)
	}
	defer rows.Close()

	var codes []model.GiftCode
	for rows.Next() {
		var g model.GiftCode
		if err := rows.Scan(&g.Code, &g.RewardAmount, &g.MaxUses, &g.CurrentUses, &g.ExpiryDate, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gift code row: %w", err)
		}
		codes = append(codes, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gift code rows: %w", err)
	}
	return codes, nil
}

// FindByCodeForUpdate retrieves a code and row-locks it so concurrent
// redemptions racing for the last use slot serialize.
func (r *giftCodeRepository) FindByCodeForUpdate(ctx context.Context, code string) (*model.GiftCode, error) {
	g := &model.GiftCode{}
	sql := `SELECT ` + giftColumns + ` FROM gift_codes WHERE code = $1 FOR UPDATE`
	err := r.db.QueryRow(ctx, sql, code).Scan(&g.Code, &g.RewardAmount, &g.MaxUses, &g.CurrentUses, &g.ExpiryDate, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to lock gift code: %w", err)
	}
	return g, nil
}

// IncrementUses bumps current_uses if a slot remains. Returns false when
// the code is exhausted.
func (r *giftCodeRepository) IncrementUses(ctx context.Context, code string) (bool, error) {
	sql := `UPDATE gift_codes SET current_uses = current_uses + 1
            WHERE code = $1 AND current_uses < max_uses`
	cmdTag, err := r.db.Exec(ctx, sql, code)
	if err != nil {
		return false, fmt.Errorf("failed to increment gift code uses: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// InsertRedemption records the (code, user) pair; the unique constraint is
// the race-free once-per-user check.
func (r *giftCodeRepository) InsertRedemption(ctx context.Context, code string, userID int) error {
	sql := `INSERT INTO gift_redemptions (code, user_id, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, sql, code, userID, time.Now()); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyRedeemed
		}
		return fmt.Errorf("failed to record gift redemption: %w", err)
	}
	return nil
}
