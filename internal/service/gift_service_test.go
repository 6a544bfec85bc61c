package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"power_ledger/internal/model"
	"power_ledger/internal/repository"
	"power_ledger/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var giftCols = []string{"code", "reward_amount", "max_uses", "current_uses", "expiry_date", "created_at"}

func newGiftService(mock pgxmock.PgxPoolIface) GiftService {
	return NewGiftService(mock,
		repository.NewUserRepository(mock),
		repository.NewGiftCodeRepository(mock),
		repository.NewTransactionRepository(mock),
		utils.FixedClock{Time: testNow})
}

func TestGiftService_RedeemGift(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newGiftService(mock)
	details := "Gift code WELCOME50"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM gift_codes WHERE code = $1 FOR UPDATE`)).
		WithArgs("WELCOME50").
		WillReturnRows(pgxmock.NewRows(giftCols).
			AddRow("WELCOME50", int64(5000), 100, 3, testNow.Add(24*time.Hour), testNow.Add(-time.Hour)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO gift_redemptions (code, user_id, created_at) VALUES ($1, $2, $3)`)).
		WithArgs("WELCOME50", 4, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE gift_codes SET current_uses = current_uses + 1 WHERE code = $1 AND current_uses < max_uses`)).
		WithArgs("WELCOME50").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0`)).
		WithArgs(int64(5000), 4).
		WillReturnRows(userRows(&model.User{ID: 4, Name: "Asha", Role: model.RoleUser, Balance: 5000, CreatedAt: testNow}))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET total_earnings = total_earnings + $1 WHERE id = $2`)).
		WithArgs(int64(5000), 4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WithArgs(4, model.TransactionTypeBonus, int64(5000), model.TransactionStatusCompleted,
			pgxmock.AnyArg(), &details, (*string)(nil), (*string)(nil), testNow).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(51), testNow))
	mock.ExpectCommit()

	// Codes are case and whitespace insensitive on input.
	record, err := svc.RedeemGift(context.Background(), 4, "  welcome50 ")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), record.Amount)
	assert.Equal(t, model.TransactionTypeBonus, record.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftService_RedeemGift_Expired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newGiftService(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM gift_codes WHERE code = $1 FOR UPDATE`)).
		WithArgs("OLD").
		WillReturnRows(pgxmock.NewRows(giftCols).
			AddRow("OLD", int64(5000), 100, 3, testNow.Add(-time.Minute), testNow.Add(-48*time.Hour)))
	mock.ExpectRollback()

	_, err = svc.RedeemGift(context.Background(), 4, "OLD")
	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftService_RedeemGift_Exhausted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newGiftService(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM gift_codes WHERE code = $1 FOR UPDATE`)).
		WithArgs("FULL").
		WillReturnRows(pgxmock.NewRows(giftCols).
			AddRow("FULL", int64(5000), 10, 10, testNow.Add(24*time.Hour), testNow.Add(-time.Hour)))
	mock.ExpectRollback()

	_, err = svc.RedeemGift(context.Background(), 4, "FULL")
	assert.ErrorIs(t, err, ErrCodeExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftService_RedeemGift_AlreadyRedeemed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newGiftService(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM gift_codes WHERE code = $1 FOR UPDATE`)).
		WithArgs("WELCOME50").
		WillReturnRows(pgxmock.NewRows(giftCols).
			AddRow("WELCOME50", int64(5000), 100, 3, testNow.Add(24*time.Hour), testNow.Add(-time.Hour)))
	// The unique constraint on (code, user_id) is the once-per-user check.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO gift_redemptions`)).
		WithArgs("WELCOME50", 4, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err = svc.RedeemGift(context.Background(), 4, "WELCOME50")
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftService_RedeemGift_UnknownCode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newGiftService(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM gift_codes WHERE code = $1 FOR UPDATE`)).
		WithArgs("NOPE").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err = svc.RedeemGift(context.Background(), 4, "NOPE")
	assert.ErrorIs(t, err, ErrCodeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftService_CreateGiftCode_PastExpiry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newGiftService(mock)

	_, err = svc.CreateGiftCode(context.Background(), model.CreateGiftCodeRequest{
		Code:         "LATE",
		RewardAmount: 5000,
		MaxUses:      10,
		ExpiryDate:   testNow.Add(-time.Hour),
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
