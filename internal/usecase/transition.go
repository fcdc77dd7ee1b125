package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// applyTarget maps a requested status onto the one named transition that
// reaches it. Pending is never a target.
func applyTarget(o *model.Order, to model.OrderStatus, reason string, now time.Time) (model.Transition, error) {
	switch to {
	case model.OrderStatusConfirmed:
		return o.Confirm(now)
	case model.OrderStatusPreparing:
		return o.StartPreparing(now)
	case model.OrderStatusReady:
		return o.MarkReady(now)
	case model.OrderStatusDelivered:
		return o.MarkDelivered(now)
	case model.OrderStatusCancelled:
		return o.Cancel(reason, now)
	}
	return model.Transition{}, model.ErrIllegalTransition
}

type statusSnapshot struct {
	Status             model.OrderStatus `json:"status"`
	At                 *time.Time        `json:"at,omitempty"`
	CancellationReason *string           `json:"cancellation_reason,omitempty"`
}

// 遷移1件分の監査ログ。actorUserIDがnilならsystem
func transitionAudit(actorUserID *int64, orderID int64, tr model.Transition) model.AuditLog {
	actorType := model.AuditActorStaff
	if actorUserID == nil {
		actorType = model.AuditActorSystem
	}
	at := tr.At
	before, _ := json.Marshal(statusSnapshot{Status: tr.From})
	after, _ := json.Marshal(statusSnapshot{Status: tr.To, At: &at, CancellationReason: tr.Reason})

	return model.AuditLog{
		ActorUserID:  actorUserID,
		ActorType:    actorType,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
		CreatedAt:    tr.At,
	}
}

// persistTransition writes tr and its audit row with r. A concurrent writer
// surfaces as model.ErrIllegalTransition.
func persistTransition(ctx context.Context, r repo.TxRepos, actorUserID *int64, orderID int64, tr model.Transition) error {
	if err := r.Orders().ApplyTransition(ctx, orderID, tr); err != nil {
		if errors.Is(err, repo.ErrStaleStatus) {
			return model.ErrIllegalTransition
		}
		return err
	}
	return r.AuditLogs().Create(ctx, transitionAudit(actorUserID, orderID, tr))
}

func orderEvent(id string, o model.Order, tr model.Transition) model.OrderEvent {
	return model.OrderEvent{
		EventID:       id,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		AccessToken:   o.AccessToken,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		From:          tr.From,
		To:            tr.To,
		Reason:        tr.Reason,
		OccurredAt:    tr.At,
	}
}

// コミット後に通知。失敗はログだけ
func notifyCommitted(ctx context.Context, n Notifier, log *zap.Logger, ev model.OrderEvent) {
	if n == nil {
		return
	}
	if err := n.OrderStatusChanged(ctx, ev); err != nil {
		log.Warn("order notification failed",
			zap.Int64("order_id", ev.OrderID),
			zap.String("order_number", ev.OrderNumber),
			zap.String("to", string(ev.To)),
			zap.Error(err),
		)
	}
}
