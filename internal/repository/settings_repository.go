package repository

import (
	"context"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 店舗設定。キャッシュせず毎回読む
type SettingsRepository interface {
	AutoCancel(ctx context.Context) (model.AutoCancelSettings, error)
	SaveAutoCancel(ctx context.Context, s model.AutoCancelSettings) error
	DeliveryFee(ctx context.Context) (decimal.Decimal, error)
	SaveDeliveryFee(ctx context.Context, fee decimal.Decimal) error
}
