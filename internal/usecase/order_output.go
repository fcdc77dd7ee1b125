package usecase

import (
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type OrderItemOutput struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// StatusTimeline is the per-transition timestamps, oldest first.
type StatusTimeline struct {
	ConfirmedAt *time.Time `json:"confirmed_at"`
	PreparingAt *time.Time `json:"preparing_at"`
	ReadyAt     *time.Time `json:"ready_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
}

// 顧客・スタッフ向けの注文詳細
type OrderOutput struct {
	OrderNumber        string            `json:"order_number"`
	Status             model.OrderStatus `json:"status"`
	StatusLabel        string            `json:"status_label"`
	CustomerName       string            `json:"customer_name"`
	CustomerPhone      string            `json:"customer_phone"`
	CustomerAddress    *string           `json:"customer_address"`
	Notes              string            `json:"notes"`
	Subtotal           decimal.Decimal   `json:"subtotal"`
	DeliveryFee        decimal.Decimal   `json:"delivery_fee"`
	Total              decimal.Decimal   `json:"total"`
	CancellationReason *string           `json:"cancellation_reason,omitempty"`
	Timeline           StatusTimeline    `json:"timeline"`
	CreatedAt          time.Time         `json:"created_at"`
	Items              []OrderItemOutput `json:"items"`
}

// 管理画面向け（内部IDとトークンを含む）
type AdminOrderOutput struct {
	ID          int64  `json:"id"`
	UserID      *int64 `json:"user_id"`
	AccessToken string `json:"access_token"`
	OrderOutput
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type AdminOrderListOutput struct {
	Items []AdminOrderOutput `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

func toOrderOutput(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemOutput{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return OrderOutput{
		OrderNumber:        o.OrderNumber,
		Status:             o.Status,
		StatusLabel:        o.Status.Label(),
		CustomerName:       o.CustomerName,
		CustomerPhone:      o.CustomerPhone,
		CustomerAddress:    o.CustomerAddress,
		Notes:              o.Notes,
		Subtotal:           o.Subtotal,
		DeliveryFee:        o.DeliveryFee,
		Total:              o.Total,
		CancellationReason: o.CancellationReason,
		Timeline: StatusTimeline{
			ConfirmedAt: o.ConfirmedAt,
			PreparingAt: o.PreparingAt,
			ReadyAt:     o.ReadyAt,
			DeliveredAt: o.DeliveredAt,
			CancelledAt: o.CancelledAt,
		},
		CreatedAt: o.CreatedAt,
		Items:     items,
	}
}

func toAdminOrderOutput(o model.Order) AdminOrderOutput {
	return AdminOrderOutput{
		ID:          o.ID,
		UserID:      o.UserID,
		AccessToken: o.AccessToken,
		OrderOutput: toOrderOutput(o),
	}
}
