// Package notify delivers committed order status changes.
package notify

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

type Notifier interface {
	OrderStatusChanged(ctx context.Context, ev model.OrderEvent) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) OrderStatusChanged(ctx context.Context, ev model.OrderEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.OrderStatusChanged(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
