package model

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var (
	// 状態遷移の前提を満たさない
	ErrIllegalTransition = errors.New("illegal status transition")
	// 明細なしの注文
	ErrEmptyItems = errors.New("order has no items")
	// 金額・数量が不正
	ErrInvalidAmount = errors.New("invalid amount")
)

// Valid reports whether s is one of the six known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Label is the customer facing wording for a status.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Waiting for confirmation"
	case OrderStatusConfirmed:
		return "Confirmed"
	case OrderStatusPreparing:
		return "Being prepared"
	case OrderStatusReady:
		return "Ready"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// TimestampColumn is the audit column stamped when an order enters s.
// Pending has none.
func (s OrderStatus) TimestampColumn() string {
	switch s {
	case OrderStatusConfirmed:
		return "confirmed_at"
	case OrderStatusPreparing:
		return "preparing_at"
	case OrderStatusReady:
		return "ready_at"
	case OrderStatusDelivered:
		return "delivered_at"
	case OrderStatusCancelled:
		return "cancelled_at"
	}
	return ""
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order is the checkout snapshot plus its lifecycle.
//
// Status, the *_at columns and CancellationReason change only through the
// transition methods below. Inbound payloads are decoded into
// CustomerSnapshot, LineItem or CustomerDetailsPatch, none of which can carry
// them.
type Order struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	OrderNumber string `gorm:"type:varchar(32);not null;uniqueIndex"`
	AccessToken string `gorm:"type:char(26);not null;uniqueIndex"`

	//ゲスト注文はnil
	UserID *int64 `gorm:"index"`
	User   *User  `gorm:"constraint:OnDelete:SET NULL"`

	CustomerName    string  `gorm:"type:varchar(255);not null"`
	CustomerPhone   string  `gorm:"type:varchar(30);not null"`
	CustomerAddress *string `gorm:"type:text"`
	Notes           string  `gorm:"type:text"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryFee decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Status             OrderStatus `gorm:"type:varchar(20);not null;index:idx_orders_status_created"`
	ConfirmedAt        *time.Time
	PreparingAt        *time.Time
	ReadyAt            *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;index:idx_orders_status_created"`
	UpdatedAt time.Time `gorm:"not null"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// CustomerSnapshot is captured at checkout and never resynced from the profile.
type CustomerSnapshot struct {
	Name    string
	Phone   string
	Address *string
	Notes   string
}

// LineItem is a validated cart line handed over by checkout.
type LineItem struct {
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int64
}

// CustomerDetailsPatch is the only way to edit an existing order's data.
type CustomerDetailsPatch struct {
	Name    *string
	Phone   *string
	Address *string
	Notes   *string
}

// Transition is what a successful transition method produced. The repository
// persists it as a single conditional update on From.
type Transition struct {
	From   OrderStatus
	To     OrderStatus
	At     time.Time
	Reason *string
}

// NewOrder builds a pending order. Totals are computed here and never
// recalculated.
func NewOrder(customer CustomerSnapshot, items []LineItem, deliveryFee decimal.Decimal, orderNumber, accessToken string, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	if deliveryFee.IsNegative() {
		return nil, ErrInvalidAmount
	}

	subtotal := decimal.Zero
	orderItems := make([]OrderItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 || it.UnitPrice.IsNegative() {
			return nil, ErrInvalidAmount
		}
		line := it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
		subtotal = subtotal.Add(line)
		orderItems = append(orderItems, OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   line,
			CreatedAt:   now,
		})
	}

	return &Order{
		OrderNumber:     orderNumber,
		AccessToken:     accessToken,
		CustomerName:    strings.TrimSpace(customer.Name),
		CustomerPhone:   strings.TrimSpace(customer.Phone),
		CustomerAddress: customer.Address,
		Notes:           customer.Notes,
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		Total:           subtotal.Add(deliveryFee),
		Status:          OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           orderItems,
	}, nil
}

func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

func (o *Order) Confirm(now time.Time) (Transition, error) {
	return o.advance(OrderStatusPending, OrderStatusConfirmed, nil, now)
}

func (o *Order) StartPreparing(now time.Time) (Transition, error) {
	return o.advance(OrderStatusConfirmed, OrderStatusPreparing, nil, now)
}

func (o *Order) MarkReady(now time.Time) (Transition, error) {
	return o.advance(OrderStatusPreparing, OrderStatusReady, nil, now)
}

func (o *Order) MarkDelivered(now time.Time) (Transition, error) {
	return o.advance(OrderStatusReady, OrderStatusDelivered, nil, now)
}

// Cancel is legal from any non-terminal status. An empty reason is stored as NULL.
func (o *Order) Cancel(reason string, now time.Time) (Transition, error) {
	if o.IsTerminal() {
		return Transition{}, ErrIllegalTransition
	}
	var r *string
	if s := strings.TrimSpace(reason); s != "" {
		r = &s
	}
	return o.advance(o.Status, OrderStatusCancelled, r, now)
}

func (o *Order) advance(from, to OrderStatus, reason *string, now time.Time) (Transition, error) {
	if o.Status != from {
		return Transition{}, ErrIllegalTransition
	}

	at := now
	switch to {
	case OrderStatusConfirmed:
		o.ConfirmedAt = &at
	case OrderStatusPreparing:
		o.PreparingAt = &at
	case OrderStatusReady:
		o.ReadyAt = &at
	case OrderStatusDelivered:
		o.DeliveredAt = &at
	case OrderStatusCancelled:
		o.CancelledAt = &at
		o.CancellationReason = reason
	default:
		return Transition{}, ErrIllegalTransition
	}
	o.Status = to
	o.UpdatedAt = now

	return Transition{From: from, To: to, At: at, Reason: reason}, nil
}

// ApplyDetails copies the non-nil fields of p. Nothing else is touched.
func (o *Order) ApplyDetails(p CustomerDetailsPatch) {
	if p.Name != nil {
		o.CustomerName = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		o.CustomerPhone = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		a := *p.Address
		o.CustomerAddress = &a
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
}
