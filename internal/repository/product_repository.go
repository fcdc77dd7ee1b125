package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 並行更新で状態が変わっていた
var ErrStaleStatus = errors.New("order status changed concurrently")

// 重複（access_token / order_number / email）
var ErrDuplicate = errors.New("duplicate key")

// チェックアウトが使う読み取り専用のカタログ
type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
}
