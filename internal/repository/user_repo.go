package repository

import (
	"context"
	"errors"
	"fmt"

	"power_ledger/internal/model"

	"github.com/jackc/pgx/v5"
)

// ErrInsufficientBalance is returned by UpdateBalance when a debit would
// take the balance below zero.
var ErrInsufficientBalance = errors.New("insufficient balance")

const userColumns = `id, name, phone, password_hash, role, balance, total_investment, total_earnings, referral_code, referred_by, referrals, created_at`

// UserRepository defines operations for account data. UpdateBalance is the
// only path that mutates balance.
type UserRepository interface {
	WithTx(tx pgx.Tx) UserRepository
	Create(ctx context.Context, user *model.User) error
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindByReferralCode(ctx context.Context, code string) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	UpdateBalance(ctx context.Context, id int, delta int64) (*model.User, error)
	AddInvestmentTotal(ctx context.Context, id int, amount int64) error
	AddEarningsTotal(ctx context.Context, id int, amount int64) error
	IncrementReferrals(ctx context.Context, id int) error
}

type userRepository struct {
	db Querier
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx pgx.Tx) UserRepository {
	return &userRepository{db: tx}
}

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Phone, &user.PasswordHash, &user.Role,
		&user.Balance, &user.TotalInvestment, &user.TotalEarnings,
		&user.ReferralCode, &user.ReferredBy, &user.Referrals, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a new account with a zero balance
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (name, phone, password_hash, role, balance, total_investment, total_earnings, referral_code, referred_by, referrals, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	err := r.db.QueryRow(ctx, sql,
		user.Name, user.Phone, user.PasswordHash, user.Role,
		user.Balance, user.TotalInvestment, user.TotalEarnings,
		user.ReferralCode, user.ReferredBy, user.Referrals, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByPhone retrieves an account by its phone number (the login key)
func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	user, err := scanUser(r.db.QueryRow(ctx, sql, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error here, service layer handles it
		}
		return nil, fmt.Errorf("failed to find user by phone: %w", err)
	}
	return user, nil
}

// FindByID retrieves an account by its ID
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByReferralCode retrieves the account owning a referral code
func (r *userRepository) FindByReferralCode(ctx context.Context, code string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`
	user, err := scanUser(r.db.QueryRow(ctx, sql, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by referral code: %w", err)
	}
	return user, nil
}

// FindAll retrieves every account, newest first
func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Phone, &u.PasswordHash, &u.Role,
			&u.Balance, &u.TotalInvestment, &u.TotalEarnings,
			&u.ReferralCode, &u.ReferredBy, &u.Referrals, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// UpdateBalance applies delta to the balance in a single conditional
// statement, so concurrent callers on the same account cannot interleave
// into a lost update or a negative balance. Returns (nil, nil) when the
// account does not exist and ErrInsufficientBalance when a debit would
// overdraw.
func (r *userRepository) UpdateBalance(ctx context.Context, id int, delta int64) (*model.User, error) {
	sql := `UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, sql, delta, id))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	// No row updated: either the account is missing or the debit overdraws.
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return nil, nil
	}
	return nil, ErrInsufficientBalance
}

// AddInvestmentTotal advances the cumulative invested principal
func (r *userRepository) AddInvestmentTotal(ctx context.Context, id int, amount int64) error {
	sql := `UPDATE users SET total_investment = total_investment + $1 WHERE id = $2`
	if _, err := r.db.Exec(ctx, sql, amount, id); err != nil {
		return fmt.Errorf("failed to add investment total: %w", err)
	}
	return nil
}

// AddEarningsTotal advances the cumulative earned income
func (r *userRepository) AddEarningsTotal(ctx context.Context, id int, amount int64) error {
	sql := `UPDATE users SET total_earnings = total_earnings + $1 WHERE id = $2`
	if _, err := r.db.Exec(ctx, sql, amount, id); err != nil {
		return fmt.Errorf("failed to add earnings total: %w", err)
	}
	return nil
}

// IncrementReferrals bumps the referrer's signup counter
func (r *userRepository) IncrementReferrals(ctx context.Context, id int) error {
	sql := `UPDATE users SET referrals = referrals + 1 WHERE id = $1`
	if _, err := r.db.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("failed to increment referrals: %w", err)
	}
	return nil
}
