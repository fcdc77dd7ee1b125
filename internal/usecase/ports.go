package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// アクセストークンを発行する約束
type TokenIssuer interface {
	Issue() string
}

// 注文番号を作る約束
type OrderNumberGenerator interface {
	Next(now time.Time) (string, error)
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// Notifier is told about committed status changes. Its error never undoes
// the transition.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, ev model.OrderEvent) error
}

type NopNotifier struct{}

func (NopNotifier) OrderStatusChanged(context.Context, model.OrderEvent) error { return nil }
