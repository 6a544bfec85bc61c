package service

import (
	"context"
	"regexp"
	"testing"

	"power_ledger/internal/model"
	"power_ledger/internal/repository"
	"power_ledger/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{"id", "name", "price", "daily_income", "validity_days", "image", "category", "created_at"}

func newInvestmentService(mock pgxmock.PgxPoolIface) InvestmentService {
	return NewInvestmentService(mock,
		repository.NewUserRepository(mock),
		repository.NewProductRepository(mock),
		repository.NewInvestmentRepository(mock),
		repository.NewTransactionRepository(mock),
		utils.FixedClock{Time: testNow}, 15)
}

func TestInvestmentService_BuyProduct(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newInvestmentService(mock)

	referrerID := 9
	buyer := &model.User{
		ID: 4, Name: "Asha", Role: model.RoleUser,
		Balance: 100000, ReferredBy: &referrerID, CreatedAt: testNow,
	}
	purchaseDetails := "Purchased Solar Plus"
	commissionDetails := "Team commission: plan purchase by Asha"

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1`)).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(2, "Solar Plus", int64(500000), int64(25000), 30, "", model.CategoryPro, testNow))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0`)).
		WithArgs(int64(-500000), 4).
		WillReturnRows(userRows(buyer))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET total_investment = total_investment + $1 WHERE id = $2`)).
		WithArgs(int64(500000), 4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO investments`)).
		WithArgs(4, 2, "Solar Plus", int64(500000), int64(25000), testNow, testNow.AddDate(0, 0, 30), testNow).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), testNow))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WithArgs(4, model.TransactionTypeInvestment, int64(500000), model.TransactionStatusCompleted,
			pgxmock.AnyArg(), &purchaseDetails, (*string)(nil), (*string)(nil), testNow).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(41), testNow))

	// 15% of the principal lands with the referrer in the same transaction.
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0`)).
		WithArgs(int64(75000), 9).
		WillReturnRows(userRows(&model.User{ID: 9, Name: "Ravi", Role: model.RoleUser, Balance: 75000, CreatedAt: testNow}))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET total_earnings = total_earnings + $1 WHERE id = $2`)).
		WithArgs(int64(75000), 9).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WithArgs(9, model.TransactionTypeBonus, int64(75000), model.TransactionStatusCompleted,
			pgxmock.AnyArg(), &commissionDetails, (*string)(nil), (*string)(nil), testNow).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), testNow))
	mock.ExpectCommit()

	inv, err := svc.BuyProduct(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.Equal(t, "Solar Plus", inv.ProductName)
	assert.Equal(t, int64(500000), inv.Amount)
	assert.Equal(t, int64(25000), inv.DailyReturn)
	assert.Equal(t, testNow.AddDate(0, 0, 30), inv.ExpiryDate)
	assert.Equal(t, testNow, inv.LastCollectionDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvestmentService_BuyProduct_InsufficientFunds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newInvestmentService(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1`)).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(2, "Solar Plus", int64(500000), int64(25000), 30, "", model.CategoryPro, testNow))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0`)).
		WithArgs(int64(-500000), 4).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`)).
		WithArgs(4).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = svc.BuyProduct(context.Background(), 4, 2)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvestmentService_BuyProduct_UnknownProduct(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newInvestmentService(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1`)).
		WithArgs(99).
		WillReturnError(pgx.ErrNoRows)

	_, err = svc.BuyProduct(context.Background(), 4, 99)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
