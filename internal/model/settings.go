package model

// AppSettings is process-wide policy read by every engine. Minimums are in
// paise. Mutated only through the admin surface.
type AppSettings struct {
	AppName          string `json:"app_name"`
	AppLogo          string `json:"app_logo"`
	AboutContent     string `json:"about_content"`
	PlatformUpi      string `json:"platform_upi"`
	MinRecharge      int64  `json:"min_recharge"`
	MinWithdrawal    int64  `json:"min_withdrawal"`
	AllowWithdrawals bool   `json:"allow_withdrawals"`
}

type UpdateSettingsRequest struct {
	AppName          *string `json:"app_name,omitempty"`
	AppLogo          *string `json:"app_logo,omitempty"`
	AboutContent     *string `json:"about_content,omitempty"`
	PlatformUpi      *string `json:"platform_upi,omitempty"`
	MinRecharge      *int64  `json:"min_recharge,omitempty" binding:"omitempty,gt=0"`
	MinWithdrawal    *int64  `json:"min_withdrawal,omitempty" binding:"omitempty,gt=0"`
	AllowWithdrawals *bool   `json:"allow_withdrawals,omitempty"`
}
