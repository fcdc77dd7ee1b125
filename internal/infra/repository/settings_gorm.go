package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// store_settings の key/value を型付きで読み書きする
type SettingsGormRepository struct {
	db         *gorm.DB
	defaultFee decimal.Decimal
}

func NewSettingsGormRepository(db *gorm.DB, defaultFee decimal.Decimal) *SettingsGormRepository {
	return &SettingsGormRepository{db: db, defaultFee: defaultFee}
}

// 未設定・壊れた値はデフォルトに倒す
func (r *SettingsGormRepository) AutoCancel(ctx context.Context) (model.AutoCancelSettings, error) {
	out := model.DefaultAutoCancelSettings()

	values, err := r.load(ctx, model.SettingAutoCancelEnabled, model.SettingAutoCancelMinutes)
	if err != nil {
		return out, err
	}
	if v, ok := values[model.SettingAutoCancelEnabled]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			out.Enabled = b
		}
	}
	if v, ok := values[model.SettingAutoCancelMinutes]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.Minutes = n
		}
	}
	if !out.Valid() {
		out.Minutes = model.DefaultAutoCancelSettings().Minutes
	}
	return out, nil
}

func (r *SettingsGormRepository) SaveAutoCancel(ctx context.Context, s model.AutoCancelSettings) error {
	if !s.Valid() {
		return errors.New("auto cancel minutes out of range")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, model.SettingAutoCancelEnabled, strconv.FormatBool(s.Enabled)); err != nil {
			return err
		}
		return upsert(tx, model.SettingAutoCancelMinutes, strconv.Itoa(s.Minutes))
	})
}

func (r *SettingsGormRepository) DeliveryFee(ctx context.Context) (decimal.Decimal, error) {
	values, err := r.load(ctx, model.SettingDeliveryFee)
	if err != nil {
		return decimal.Zero, err
	}
	v, ok := values[model.SettingDeliveryFee]
	if !ok {
		return r.defaultFee, nil
	}
	fee, err := decimal.NewFromString(v)
	if err != nil || fee.IsNegative() {
		return r.defaultFee, nil
	}
	return fee, nil
}

func (r *SettingsGormRepository) SaveDeliveryFee(ctx context.Context, fee decimal.Decimal) error {
	if fee.IsNegative() {
		return model.ErrInvalidAmount
	}
	return upsert(r.db.WithContext(ctx), model.SettingDeliveryFee, fee.StringFixed(2))
}

func (r *SettingsGormRepository) load(ctx context.Context, keys ...string) (map[string]string, error) {
	var rows []model.StoreSetting
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func upsert(db *gorm.DB, key, value string) error {
	row := model.StoreSetting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}
