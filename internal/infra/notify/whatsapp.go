package notify

import (
	"context"

	"storefront/internal/domain/model"
	"storefront/internal/whatsapp"

	"go.uber.org/zap"
)

// WhatsAppNotifier prepares the customer message and its wa.me link. Staff
// send it from the back office; the link is logged for them.
type WhatsAppNotifier struct {
	log           *zap.Logger
	publicBaseURL string
	countryCode   string
}

func NewWhatsAppNotifier(log *zap.Logger, publicBaseURL, countryCode string) *WhatsAppNotifier {
	return &WhatsAppNotifier{log: log, publicBaseURL: publicBaseURL, countryCode: countryCode}
}

func (n *WhatsAppNotifier) Message(ev model.OrderEvent) (text string, link string) {
	tracking := ""
	if ev.AccessToken != "" {
		tracking = n.publicBaseURL + "/orders/" + ev.AccessToken
	}
	text = whatsapp.StatusMessage(ev, tracking)
	return text, whatsapp.Link(ev.CustomerPhone, n.countryCode, text)
}

func (n *WhatsAppNotifier) OrderStatusChanged(_ context.Context, ev model.OrderEvent) error {
	_, link := n.Message(ev)
	n.log.Info("order status message ready",
		zap.String("order_number", ev.OrderNumber),
		zap.String("from", string(ev.From)),
		zap.String("to", string(ev.To)),
		zap.String("whatsapp_url", link),
	)
	return nil
}
