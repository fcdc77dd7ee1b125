package model

import "time"

// OrderEvent is published after a status change has been committed.
type OrderEvent struct {
	EventID       string      `json:"event_id"`
	OrderID       int64       `json:"order_id"`
	OrderNumber   string      `json:"order_number"`
	AccessToken   string      `json:"-"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"-"`
	From          OrderStatus `json:"from"`
	To            OrderStatus `json:"to"`
	Reason        *string     `json:"reason,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}
