package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/domain/phone"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx          repo.TransactionManager
	orders      repo.OrderRepository
	notifier    Notifier
	ids         IDGenerator
	clock       Clock
	countryCode string
	log         *zap.Logger
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	notifier Notifier,
	ids IDGenerator,
	clock Clock,
	countryCode string,
	log *zap.Logger,
) *AdminOrderUsecase {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminOrderUsecase{tx: tx, orders: orders, notifier: notifier, ids: ids, clock: clock, countryCode: countryCode, log: log}
}

type AdminUpdateOrderStatusInput struct {
	Status             string
	CancellationReason string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid period")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return AdminOrderListOutput{}, storageError(err)
	}

	out := AdminOrderListOutput{Items: make([]AdminOrderOutput, 0, len(orders)), Total: total, Page: f.Page, Limit: f.Limit}
	for _, o := range orders {
		out.Items = append(out.Items, toAdminOrderOutput(o))
	}
	return out, nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, orderID int64) (AdminOrderOutput, error) {
	if orderID <= 0 {
		return AdminOrderOutput{}, orderNotFound()
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return AdminOrderOutput{}, orderNotFound()
	}
	if err != nil {
		return AdminOrderOutput{}, storageError(err)
	}
	return toAdminOrderOutput(o), nil
}

// UpdateStatus drives one named transition. The request is validated before
// anything is read.
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (AdminOrderOutput, error) {
	if actorUserID <= 0 {
		return AdminOrderOutput{}, NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}
	if orderID <= 0 {
		return AdminOrderOutput{}, orderNotFound()
	}

	target := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !target.Valid() {
		return AdminOrderOutput{}, validationError("invalid status")
	}
	reason := strings.TrimSpace(in.CancellationReason)
	if target == model.OrderStatusCancelled && reason == "" {
		return AdminOrderOutput{}, validationError(msgReasonRequired)
	}

	var (
		order model.Order
		tr    model.Transition
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		tr, err = applyTarget(&o, target, reason, u.clock.Now())
		if err != nil {
			return err
		}

		// ステータス更新＋監査ログ
		actor := actorUserID
		if err := persistTransition(ctx, r, &actor, o.ID, tr); err != nil {
			return err
		}
		order = o
		return nil
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return AdminOrderOutput{}, orderNotFound()
	case errors.Is(err, model.ErrIllegalTransition):
		return AdminOrderOutput{}, illegalTransition()
	case err != nil:
		return AdminOrderOutput{}, storageError(err)
	}

	notifyCommitted(ctx, u.notifier, u.log, orderEvent(u.ids.NewID(), order, tr))
	return toAdminOrderOutput(order), nil
}

type detailsSnapshot struct {
	CustomerName    string  `json:"customer_name"`
	CustomerPhone   string  `json:"customer_phone"`
	CustomerAddress *string `json:"customer_address"`
	Notes           string  `json:"notes"`
}

func snapshotDetails(o model.Order) string {
	b, _ := json.Marshal(detailsSnapshot{
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		Notes:           o.Notes,
	})
	return string(b)
}

// PatchDetails corrects the customer snapshot. Status, timestamps, token and
// money are out of reach of the patch type.
func (u *AdminOrderUsecase) PatchDetails(ctx context.Context, actorUserID int64, orderID int64, p model.CustomerDetailsPatch) (AdminOrderOutput, error) {
	if actorUserID <= 0 {
		return AdminOrderOutput{}, NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
	}
	if orderID <= 0 {
		return AdminOrderOutput{}, orderNotFound()
	}
	if p.Name == nil && p.Phone == nil && p.Address == nil && p.Notes == nil {
		return AdminOrderOutput{}, validationError("nothing to update")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return AdminOrderOutput{}, validationError("customer_name must not be empty")
	}
	if p.Phone != nil && len(phone.Normalize(*p.Phone, u.countryCode)) < 8 {
		return AdminOrderOutput{}, validationError("invalid customer_phone")
	}

	var order model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		before := snapshotDetails(o)

		now := u.clock.Now()
		o.ApplyDetails(p)
		o.UpdatedAt = now
		if err := r.Orders().UpdateCustomerDetails(ctx, o); err != nil {
			return err
		}

		actor := actorUserID
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  &actor,
			ActorType:    model.AuditActorStaff,
			Action:       model.AuditActionUpdateOrderDetails,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   before,
			AfterJSON:    snapshotDetails(o),
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		order = o
		return nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		return AdminOrderOutput{}, orderNotFound()
	}
	if err != nil {
		return AdminOrderOutput{}, storageError(err)
	}
	return toAdminOrderOutput(order), nil
}
