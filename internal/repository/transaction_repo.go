package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"power_ledger/internal/model"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, user_id, type, amount, status, reference, details, upi_id, utr, created_at`

// TransactionRepository defines operations over the append-only ledger.
// Records are never updated except for the pending -> completed/failed
// status transition.
type TransactionRepository interface {
	WithTx(tx pgx.Tx) TransactionRepository
	Create(ctx context.Context, t *model.Transaction) error
	FindByID(ctx context.Context, id int64) (*model.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*model.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	FindByUser(ctx context.Context, userID int) ([]model.Transaction, error)
	FindAll(ctx context.Context, filters model.TransactionFilters) ([]model.Transaction, error)
}

type transactionRepository struct {
	db Querier
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db Querier) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) WithTx(tx pgx.Tx) TransactionRepository {
	return &transactionRepository{db: tx}
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status,
		&t.Reference, &t.Details, &t.UpiID, &t.UTR, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create appends a new record to the ledger
func (r *transactionRepository) Create(ctx context.Context, t *model.Transaction) error {
	sql := `INSERT INTO transactions (user_id, type, amount, status, reference, details, upi_id, utr, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, sql,
		t.UserID, t.Type, t.Amount, t.Status, t.Reference, t.Details, t.UpiID, t.UTR, t.CreatedAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindByID retrieves a ledger record by its ID
func (r *transactionRepository) FindByID(ctx context.Context, id int64) (*model.Transaction, error) {
	sql := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find transaction by ID: %w", err)
	}
	return t, nil
}

// FindByIDForUpdate retrieves a record and row-locks it for the duration of
// the surrounding transaction. Adjudication locks the record before the
// account, always in that order.
func (r *transactionRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.Transaction, error) {
	sql := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	t, err := scanTransaction(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return t, nil
}

// UpdateStatus finalizes a pending record. The WHERE clause keeps the
// transition monotone even if callers race.
func (r *transactionRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	sql := `UPDATE transactions SET status = $1 WHERE id = $2 AND status = 'pending'`
	cmdTag, err := r.db.Exec(ctx, sql, status, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not pending for status update")
	}
	return nil
}

// FindByUser retrieves a user's ledger records, newest first
func (r *transactionRepository) FindByUser(ctx context.Context, userID int) ([]model.Transaction, error) {
	sql := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by user: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// FindAll retrieves ledger records with optional filters for admin
func (r *transactionRepository) FindAll(ctx context.Context, filters model.TransactionFilters) ([]model.Transaction, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + transactionColumns + ` FROM transactions`)

	args := []interface{}{}
	argCount := 1
	var conditions []string

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.Type != nil && *filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argCount))
		args = append(args, *filters.Type)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query all transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status,
			&t.Reference, &t.Details, &t.UpiID, &t.UTR, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}
