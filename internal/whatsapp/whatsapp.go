// Package whatsapp builds the click-to-chat messages sent around an order.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/domain/phone"

	"github.com/shopspring/decimal"
)

// Link returns a wa.me URL that opens a chat with number prefilled with text.
func Link(number, countryCode, text string) string {
	n := phone.Normalize(number, countryCode)
	if text == "" {
		return "https://wa.me/" + n
	}
	return "https://wa.me/" + n + "?text=" + url.QueryEscape(text)
}

// CheckoutMessage is what the customer sends the store to confirm an order.
func CheckoutMessage(o *model.Order, trackingURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Name: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", o.CustomerPhone)
	if o.CustomerAddress != nil && *o.CustomerAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", *o.CustomerAddress)
	}
	b.WriteString("\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d = %s\n", it.ProductName, it.Quantity, FormatRupiah(it.LineTotal))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", FormatRupiah(o.Subtotal))
	fmt.Fprintf(&b, "Delivery: %s\n", FormatRupiah(o.DeliveryFee))
	fmt.Fprintf(&b, "Total: %s\n", FormatRupiah(o.Total))
	if o.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", o.Notes)
	}
	if trackingURL != "" {
		fmt.Fprintf(&b, "\nTrack: %s", trackingURL)
	}
	return b.String()
}

// StatusMessage tells the customer their order moved to ev.To.
func StatusMessage(ev model.OrderEvent, trackingURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, your order %s is now: %s.", ev.CustomerName, ev.OrderNumber, ev.To.Label())
	if ev.To == model.OrderStatusCancelled && ev.Reason != nil && *ev.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", *ev.Reason)
	}
	if trackingURL != "" && !ev.To.IsTerminal() {
		fmt.Fprintf(&b, "\nTrack: %s", trackingURL)
	}
	return b.String()
}

// FormatRupiah renders d as "Rp 60.000", rounded to whole rupiah.
func FormatRupiah(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
