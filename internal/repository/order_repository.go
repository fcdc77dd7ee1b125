package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	//明細ごと1トランザクションで保存する
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByAccessToken(ctx context.Context, token string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// ApplyTransition writes t only if the row is still in t.From.
	// Returns ErrStaleStatus when another writer got there first.
	ApplyTransition(ctx context.Context, orderID int64, t model.Transition) error

	// UpdateCustomerDetails writes the customer snapshot columns only.
	UpdateCustomerDetails(ctx context.Context, order model.Order) error

	//自動キャンセル対象（pendingかつcutoffより前に作成）
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]model.Order, error)
}
