package service

import (
	"time"

	"power_ledger/internal/model"

	"github.com/pashagolub/pgxmock/v3"
)

// testNow is the fixed instant every service test pins its Clock to.
var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

var userCols = []string{
	"id", "name", "phone", "password_hash", "role",
	"balance", "total_investment", "total_earnings",
	"referral_code", "referred_by", "referrals", "created_at",
}

var investmentCols = []string{
	"id", "user_id", "product_id", "product_name", "amount",
	"daily_return", "purchase_date", "expiry_date", "last_collection_date", "created_at",
}

var transactionCols = []string{
	"id", "user_id", "type", "amount", "status",
	"reference", "details", "upi_id", "utr", "created_at",
}

var settingsCols = []string{
	"app_name", "app_logo", "about_content", "platform_upi",
	"min_recharge", "min_withdrawal", "allow_withdrawals",
}

func userRows(u *model.User) *pgxmock.Rows {
	return pgxmock.NewRows(userCols).AddRow(
		u.ID, u.Name, u.Phone, u.PasswordHash, u.Role,
		u.Balance, u.TotalInvestment, u.TotalEarnings,
		u.ReferralCode, u.ReferredBy, u.Referrals, u.CreatedAt,
	)
}

func investmentRows(inv *model.Investment) *pgxmock.Rows {
	return pgxmock.NewRows(investmentCols).AddRow(
		inv.ID, inv.UserID, inv.ProductID, inv.ProductName, inv.Amount,
		inv.DailyReturn, inv.PurchaseDate, inv.ExpiryDate, inv.LastCollectionDate, inv.CreatedAt,
	)
}

func transactionRows(t *model.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(transactionCols).AddRow(
		t.ID, t.UserID, t.Type, t.Amount, t.Status,
		t.Reference, t.Details, t.UpiID, t.UTR, t.CreatedAt,
	)
}

func settingsRows(s *model.AppSettings) *pgxmock.Rows {
	return pgxmock.NewRows(settingsCols).AddRow(
		s.AppName, s.AppLogo, s.AboutContent, s.PlatformUpi,
		s.MinRecharge, s.MinWithdrawal, s.AllowWithdrawals,
	)
}
