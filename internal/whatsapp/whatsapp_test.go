package whatsapp

import (
	"net/url"
	"strings"
	"testing"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 0", FormatRupiah(decimal.Zero))
	assert.Equal(t, "Rp 500", FormatRupiah(decimal.NewFromInt(500)))
	assert.Equal(t, "Rp 60.000", FormatRupiah(decimal.NewFromInt(60000)))
	assert.Equal(t, "Rp 1.250.000", FormatRupiah(decimal.NewFromInt(1250000)))
	assert.Equal(t, "-Rp 1.000", FormatRupiah(decimal.NewFromInt(-1000)))
}

func TestLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/6281234567890", Link("0812-3456-7890", "62", ""))

	raw := Link("+62 812 3456 7890", "62", "Order ORD-1 & more")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/6281234567890", u.Path)
	assert.Equal(t, "Order ORD-1 & more", u.Query().Get("text"))
}

func TestCheckoutMessage(t *testing.T) {
	addr := "Jl. Merdeka 1"
	o := &model.Order{
		OrderNumber:     "ORD-20260301-AB12C",
		CustomerName:    "Budi",
		CustomerPhone:   "0812",
		CustomerAddress: &addr,
		Subtotal:        decimal.NewFromInt(50000),
		DeliveryFee:     decimal.NewFromInt(10000),
		Total:           decimal.NewFromInt(60000),
		Items: []model.OrderItem{
			{ProductName: "Es Teh", Quantity: 2, LineTotal: decimal.NewFromInt(50000)},
		},
	}
	msg := CheckoutMessage(o, "https://shop.example/orders/TOKEN")
	assert.Contains(t, msg, "Order ORD-20260301-AB12C")
	assert.Contains(t, msg, "- Es Teh x2 = Rp 50.000")
	assert.Contains(t, msg, "Total: Rp 60.000")
	assert.Contains(t, msg, "Address: Jl. Merdeka 1")
	assert.True(t, strings.HasSuffix(msg, "Track: https://shop.example/orders/TOKEN"))
	assert.NotContains(t, msg, "Notes:")
}

func TestStatusMessage(t *testing.T) {
	reason := "Auto-cancelled: not confirmed within 30 minutes"
	msg := StatusMessage(model.OrderEvent{
		OrderNumber: "ORD-1", CustomerName: "Budi",
		To: model.OrderStatusCancelled, Reason: &reason,
	}, "https://shop.example/orders/TOKEN")
	assert.Contains(t, msg, "is now: Cancelled.")
	assert.Contains(t, msg, reason)
	//終了した注文には追跡リンクを付けない
	assert.NotContains(t, msg, "Track:")

	msg = StatusMessage(model.OrderEvent{OrderNumber: "ORD-1", CustomerName: "Budi", To: model.OrderStatusReady}, "https://x/orders/T")
	assert.Contains(t, msg, "is now: Ready.")
	assert.Contains(t, msg, "Track: https://x/orders/T")
}
