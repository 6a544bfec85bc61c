package service

import (
	"context"
	"regexp"
	"testing"

	"power_ledger/internal/model"
	"power_ledger/internal/repository"
	"power_ledger/internal/utils"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletService(mock pgxmock.PgxPoolIface) WalletService {
	return NewWalletService(mock,
		repository.NewUserRepository(mock),
		repository.NewTransactionRepository(mock),
		repository.NewSettingsRepository(mock),
		utils.FixedClock{Time: testNow})
}

func defaultSettings() *model.AppSettings {
	return &model.AppSettings{
		AppName:          "PowerGrid Invest",
		PlatformUpi:      "powergrid@upi",
		MinRecharge:      50000,
		MinWithdrawal:    10000,
		AllowWithdrawals: true,
	}
}

func TestWalletService_ConfirmRecharge_CreditsBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newWalletService(mock)

	utr := "UTR123456"
	pending := &model.Transaction{
		ID: 5, UserID: 4, Type: model.TransactionTypeRecharge,
		Amount: 100000, Status: model.TransactionStatusPending,
		Reference: "TXN-abc", UTR: &utr, CreatedAt: testNow,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(5)).
		WillReturnRows(transactionRows(pending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions SET status = $1 WHERE id = $2 AND status = 'pending'`)).
		WithArgs(model.TransactionStatusCompleted, int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0`)).
		WithArgs(int64(100000), 4).
		WillReturnRows(userRows(&model.User{ID: 4, Name: "Asha", Role: model.RoleUser, Balance: 100000, CreatedAt: testNow}))
	mock.ExpectCommit()

	confirmed, err := svc.ConfirmRecharge(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCompleted, confirmed.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletService_ConfirmRecharge_AlreadyFinalized(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newWalletService(mock)

	utr := "UTR123456"
	done := &model.Transaction{
		ID: 5, UserID: 4, Type: model.TransactionTypeRecharge,
		Amount: 100000, Status: model.TransactionStatusCompleted,
		Reference: "TXN-abc", UTR: &utr, CreatedAt: testNow,
	}

	// A second confirm is a no-op: no status write, no balance write.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(5)).
		WillReturnRows(transactionRows(done))
	mock.ExpectRollback()

	confirmed, err := svc.ConfirmRecharge(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCompleted, confirmed.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletService_RejectRecharge_WrongType(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newWalletService(mock)

	upi := "asha@upi"
	withdrawal := &model.Transaction{
		ID: 6, UserID: 4, Type: model.TransactionTypeWithdraw,
		Amount: 50000, Status: model.TransactionStatusPending,
		Reference: "TXN-def", UpiID: &upi, CreatedAt: testNow,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(6)).
		WillReturnRows(transactionRows(withdrawal))
	mock.ExpectRollback()

	_, err = svc.RejectRecharge(context.Background(), 6)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletService_RequestWithdraw_HoldsAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newWalletService(mock)

	upi := "asha@upi"

	mock.ExpectQuery(regexp.QuoteMeta(`FROM app_settings WHERE id = 1`)).
		WillReturnRows(settingsRows(defaultSettings()))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0`)).
		WithArgs(int64(-50000), 4).
		WillReturnRows(userRows(&model.User{ID: 4, Name: "Asha", Role: model.RoleUser, Balance: 50000, CreatedAt: testNow}))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WithArgs(4, model.TransactionTypeWithdraw, int64(50000), model.TransactionStatusPending,
			pgxmock.AnyArg(), (*string)(nil), &upi, (*string)(nil), testNow).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(6), testNow))
	mock.ExpectCommit()

	tr, err := svc.RequestWithdraw(context.Background(), 4, 50000, upi)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusPending, tr.Status)
	assert.Equal(t, int64(50000), tr.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletService_RequestWithdraw_Disabled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newWalletService(mock)

	settings := defaultSettings()
	settings.AllowWithdrawals = false
	mock.ExpectQuery(regexp.QuoteMeta(`FROM app_settings WHERE id = 1`)).
		WillReturnRows(settingsRows(settings))

	_, err = svc.RequestWithdraw(context.Background(), 4, 50000, "asha@upi")
	assert.ErrorIs(t, err, ErrWithdrawalsDisabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletService_RequestWithdraw_BelowMinimum(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newWalletService(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM app_settings WHERE id = 1`)).
		WillReturnRows(settingsRows(defaultSettings()))

	_, err = svc.RequestWithdraw(context.Background(), 4, 5000, "asha@upi")
	assert.ErrorIs(t, err, ErrBelowMinimum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletService_RejectWithdraw_RefundsHold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newWalletService(mock)

	upi := "asha@upi"
	pending := &model.Transaction{
		ID: 6, UserID: 4, Type: model.TransactionTypeWithdraw,
		Amount: 50000, Status: model.TransactionStatusPending,
		Reference: "TXN-def", UpiID: &upi, CreatedAt: testNow,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(6)).
		WillReturnRows(transactionRows(pending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions SET status = $1 WHERE id = $2 AND status = 'pending'`)).
		WithArgs(model.TransactionStatusFailed, int64(6)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	// Exactly the held amount comes back.
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0`)).
		WithArgs(int64(50000), 4).
		WillReturnRows(userRows(&model.User{ID: 4, Name: "Asha", Role: model.RoleUser, Balance: 100000, CreatedAt: testNow}))
	mock.ExpectCommit()

	rejected, err := svc.RejectWithdraw(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusFailed, rejected.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletService_ApproveWithdraw_NoBalanceChange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newWalletService(mock)

	upi := "asha@upi"
	pending := &model.Transaction{
		ID: 6, UserID: 4, Type: model.TransactionTypeWithdraw,
		Amount: 50000, Status: model.TransactionStatusPending,
		Reference: "TXN-def", UpiID: &upi, CreatedAt: testNow,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(6)).
		WillReturnRows(transactionRows(pending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions SET status = $1 WHERE id = $2 AND status = 'pending'`)).
		WithArgs(model.TransactionStatusCompleted, int64(6)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	approved, err := svc.ApproveWithdraw(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCompleted, approved.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
