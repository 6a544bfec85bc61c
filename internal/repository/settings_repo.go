package repository

import (
	"context"
	"fmt"

	"power_ledger/internal/model"

	"github.com/jackc/pgx/v5"
)

// SettingsRepository reads and writes the single platform settings row.
type SettingsRepository interface {
	WithTx(tx pgx.Tx) SettingsRepository
	Get(ctx context.Context) (*model.AppSettings, error)
	Update(ctx context.Context, s *model.AppSettings) error
}

type settingsRepository struct {
	db Querier
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db Querier) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) WithTx(tx pgx.Tx) SettingsRepository {
	return &settingsRepository{db: tx}
}

func (r *settingsRepository) Get(ctx context.Context) (*model.AppSettings, error) {
	s := &model.AppSettings{}
	sql := `SELECT app_name, app_logo, about_content, platform_upi, min_recharge, min_withdrawal, allow_withdrawals
            FROM app_settings WHERE id = 1`
	err := r.db.QueryRow(ctx, sql).Scan(
		&s.AppName, &s.AppLogo, &s.AboutContent, &s.PlatformUpi,
		&s.MinRecharge, &s.MinWithdrawal, &s.AllowWithdrawals,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load app settings: %w", err)
	}
	return s, nil
}

func (r *settingsRepository) Update(ctx context.Context, s *model.AppSettings) error {
	sql := `UPDATE app_settings SET app_name = $1, app_logo = $2, about_content = $3, platform_upi = $4,
            min_recharge = $5, min_withdrawal = $6, allow_withdrawals = $7 WHERE id = 1`
	if _, err := r.db.Exec(ctx, sql,
		s.AppName, s.AppLogo, s.AboutContent, s.PlatformUpi,
		s.MinRecharge, s.MinWithdrawal, s.AllowWithdrawals,
	); err != nil {
		return fmt.Errorf("failed to update app settings: %w", err)
	}
	return nil
}
