package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// SweepResult summarises one auto-cancel run.
type SweepResult struct {
	Enabled    bool `json:"enabled"`
	Minutes    int  `json:"minutes"`
	Candidates int  `json:"candidates"`
	Cancelled  int  `json:"cancelled"`
	//確認済みなどで対象外になった
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

var errNoLongerPending = errors.New("order no longer pending")

func AutoCancelReason(minutes int) string {
	return fmt.Sprintf("Auto-cancelled: not confirmed within %d minutes", minutes)
}

// 未確認のまま放置された注文を取り消す
type AutoCancelUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	settings repo.SettingsRepository
	notifier Notifier
	ids      IDGenerator
	clock    Clock
	log      *zap.Logger
}

func NewAutoCancelUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	settings repo.SettingsRepository,
	notifier Notifier,
	ids IDGenerator,
	clock Clock,
	log *zap.Logger,
) *AutoCancelUsecase {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AutoCancelUsecase{tx: tx, orders: orders, settings: settings, notifier: notifier, ids: ids, clock: clock, log: log}
}

// Run performs one sweep. Settings are read on every call. A failure on one
// order is logged and counted; only a settings/selection failure or ctx being
// done ends the run early.
func (u *AutoCancelUsecase) Run(ctx context.Context) (SweepResult, error) {
	s, err := u.settings.AutoCancel(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("read auto cancel settings: %w", err)
	}
	res := SweepResult{Enabled: s.Enabled, Minutes: s.Minutes}
	if !s.Enabled {
		return res, nil
	}
	if !s.Valid() {
		return res, fmt.Errorf("auto cancel minutes out of range: %d", s.Minutes)
	}

	now := u.clock.Now()
	cutoff := now.Add(-time.Duration(s.Minutes) * time.Minute)
	candidates, err := u.orders.ListExpiredPending(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("list expired pending orders: %w", err)
	}
	res.Candidates = len(candidates)

	reason := AutoCancelReason(s.Minutes)
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		err := u.cancelOne(ctx, c.ID, reason)
		switch {
		case err == nil:
			res.Cancelled++
		case errors.Is(err, errNoLongerPending):
			res.Skipped++
		default:
			res.Failed++
			u.log.Error("auto cancel failed",
				zap.Int64("order_id", c.ID),
				zap.String("order_number", c.OrderNumber),
				zap.Error(err),
			)
		}
	}
	return res, nil
}

// 1件ずつ別トランザクション
func (u *AutoCancelUsecase) cancelOne(ctx context.Context, orderID int64, reason string) error {
	var (
		order model.Order
		tr    model.Transition
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//最新状態を読み直す
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderStatusPending {
			return errNoLongerPending
		}

		tr, err = o.Cancel(reason, u.clock.Now())
		if err != nil {
			return err
		}
		if err := persistTransition(ctx, r, nil, o.ID, tr); err != nil {
			if errors.Is(err, model.ErrIllegalTransition) {
				return errNoLongerPending
			}
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return err
	}

	notifyCommitted(ctx, u.notifier, u.log, orderEvent(u.ids.NewID(), order, tr))
	return nil
}
