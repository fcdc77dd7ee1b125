package model

import "time"

// 店舗設定（key/value）。自動キャンセル設定や配送料を保持
type StoreSetting struct {
	Key       string    `gorm:"primaryKey;type:varchar(100)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

const (
	SettingAutoCancelEnabled = "auto_cancel_enabled"
	SettingAutoCancelMinutes = "auto_cancel_minutes"
	SettingDeliveryFee       = "delivery_fee"
)

const (
	AutoCancelMinMinutes = 5
	AutoCancelMaxMinutes = 1440
)

// AutoCancelSettings drive the expiry sweep. Read fresh on every run.
type AutoCancelSettings struct {
	Enabled bool `json:"enabled"`
	Minutes int  `json:"minutes"`
}

func DefaultAutoCancelSettings() AutoCancelSettings {
	return AutoCancelSettings{Enabled: false, Minutes: 30}
}

func (s AutoCancelSettings) Valid() bool {
	return s.Minutes >= AutoCancelMinMinutes && s.Minutes <= AutoCancelMaxMinutes
}
