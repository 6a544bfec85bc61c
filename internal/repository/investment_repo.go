package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"power_ledger/internal/model"

	"github.com/jackc/pgx/v5"
)

// ErrWatermarkMoved is returned when a concurrent accrual tick advanced the
// watermark first; the caller must abort its credit.
var ErrWatermarkMoved = errors.New("collection watermark already advanced")

const investmentColumns = `id, user_id, product_id, product_name, amount, daily_return, purchase_date, expiry_date, last_collection_date, created_at`

// InvestmentRepository defines operations for purchased investments.
// Only the accrual engine moves last_collection_date.
type InvestmentRepository interface {
	WithTx(tx pgx.Tx) InvestmentRepository
	Create(ctx context.Context, inv *model.Investment) error
	FindActiveByUser(ctx context.Context, userID int, now time.Time) ([]model.Investment, error)
	FindDueByUser(ctx context.Context, userID int, now time.Time) ([]model.Investment, error)
	FindAllDue(ctx context.Context, now time.Time) ([]model.Investment, error)
	AdvanceWatermark(ctx context.Context, id int64, from, to time.Time) error
}

type investmentRepository struct {
	db Querier
}

// NewInvestmentRepository creates a new InvestmentRepository
func NewInvestmentRepository(db Querier) InvestmentRepository {
	return &investmentRepository{db: db}
}

func (r *investmentRepository) WithTx(tx pgx.Tx) InvestmentRepository {
	return &investmentRepository{db: tx}
}

// Create inserts a new investment snapshot
func (r *investmentRepository) Create(ctx context.Context, inv *model.Investment) error {
	sql := `INSERT INTO investments (user_id, product_id, product_name, amount, daily_return, purchase_date, expiry_date, last_collection_date)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, sql,
		inv.UserID, inv.ProductID, inv.ProductName, inv.Amount, inv.DailyReturn,
		inv.PurchaseDate, inv.ExpiryDate, inv.LastCollectionDate,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

// FindActiveByUser returns investments that have not yet expired
func (r *investmentRepository) FindActiveByUser(ctx context.Context, userID int, now time.Time) ([]model.Investment, error) {
	sql := `SELECT ` + investmentColumns + ` FROM investments
            WHERE user_id = $1 AND expiry_date > $2 ORDER BY purchase_date DESC, id DESC`
	rows, err := r.db.Query(ctx, sql, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active investments: %w", err)
	}
	defer rows.Close()
	return collectInvestments(rows)
}

// FindDueByUser returns a user's investments with at least one uncredited
// whole day behind the watermark.
func (r *investmentRepository) FindDueByUser(ctx context.Context, userID int, now time.Time) ([]model.Investment, error) {
	sql := `SELECT ` + investmentColumns + ` FROM investments
            WHERE user_id = $1 AND last_collection_date < expiry_date AND last_collection_date <= $2 - INTERVAL '1 day'
            ORDER BY id ASC`
	rows, err := r.db.Query(ctx, sql, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due investments: %w", err)
	}
	defer rows.Close()
	return collectInvestments(rows)
}

// FindAllDue is the sweeper variant of FindDueByUser across all accounts
func (r *investmentRepository) FindAllDue(ctx context.Context, now time.Time) ([]model.Investment, error) {
	sql := `SELECT ` + investmentColumns + ` FROM investments
            WHERE last_collection_date < expiry_date AND last_collection_date <= $1 - INTERVAL '1 day'
            ORDER BY id ASC`
	rows, err := r.db.Query(ctx, sql, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due investments: %w", err)
	}
	defer rows.Close()
	return collectInvestments(rows)
}

// AdvanceWatermark moves last_collection_date from the value the caller
// computed against to the new value. The compare keeps a concurrent tick
// from crediting the same elapsed days twice: the second mover matches zero
// rows.
func (r *investmentRepository) AdvanceWatermark(ctx context.Context, id int64, from, to time.Time) error {
	sql := `UPDATE investments SET last_collection_date = $1
            WHERE id = $2 AND last_collection_date = $3 AND $1 <= expiry_date`
	cmdTag, err := r.db.Exec(ctx, sql, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to advance collection watermark: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrWatermarkMoved
	}
	return nil
}

func collectInvestments(rows pgx.Rows) ([]model.Investment, error) {
	var investments []model.Investment
	for rows.Next() {
		var inv model.Investment
		if err := rows.Scan(
			&inv.ID, &inv.UserID, &inv.ProductID, &inv.ProductName, &inv.Amount,
			&inv.DailyReturn, &inv.PurchaseDate, &inv.ExpiryDate, &inv.LastCollectionDate, &inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan investment row: %w", err)
		}
		investments = append(investments, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment rows: %w", err)
	}
	return investments, nil
}
