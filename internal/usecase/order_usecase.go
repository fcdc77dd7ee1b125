package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/policy"
	repo "storefront/internal/repository"
)

// ログイン中の顧客が自分の注文を見る
type OrderUsecase struct {
	orders repo.OrderRepository
}

func NewOrderUsecase(orders repo.OrderRepository) *OrderUsecase {
	return &OrderUsecase{orders: orders}
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, storageError(err)
	}

	out := OrderListOutput{Items: make([]OrderOutput, 0, len(orders)), Total: total, Page: page, Limit: limit}
	for _, o := range orders {
		out.Items = append(out.Items, toOrderOutput(o))
	}
	return out, nil
}

// 他人の注文は存在しない扱い（404）
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}
	if orderID <= 0 {
		return OrderOutput{}, orderNotFound()
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, orderNotFound()
	}
	if err != nil {
		return OrderOutput{}, storageError(err)
	}

	d := policy.Decide(&o, policy.Access{Actor: policy.Customer(userID)})
	if !d.View {
		return OrderOutput{}, accessDenied()
	}
	return toOrderOutput(o), nil
}
