package handler

import (
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminOrder_RequiresStaff(t *testing.T) {
	app := newTestApp(t)

	rec := app.client().do(http.MethodGet, "/admin/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.client().do(http.MethodGet, "/admin/orders", nil, bearerHeader(app.customerBearer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminOrder_HappyPath(t *testing.T) {
	app := newTestApp(t)
	order := app.checkout(t, nil)
	id := app.orderID(t, order.AccessToken)
	path := fmt.Sprintf("/admin/orders/%d/status", id)

	var last usecase.AdminOrderOutput
	for _, status := range []string{"confirmed", "preparing", "ready", "delivered"} {
		rec := app.client().do(http.MethodPut, path, map[string]string{"status": status}, bearerHeader(app.staffBearer))
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", status, rec.Body.String())
		last = decodeJSON[usecase.AdminOrderOutput](t, rec)
		assert.Equal(t, model.OrderStatus(status), last.Status)
	}

	tl := last.Timeline
	require.NotNil(t, tl.ConfirmedAt)
	require.NotNil(t, tl.PreparingAt)
	require.NotNil(t, tl.ReadyAt)
	require.NotNil(t, tl.DeliveredAt)
	assert.False(t, tl.PreparingAt.Before(*tl.ConfirmedAt))
	assert.False(t, tl.ReadyAt.Before(*tl.PreparingAt))
	assert.False(t, tl.DeliveredAt.Before(*tl.ReadyAt))
	assert.Nil(t, tl.CancelledAt)
	assert.Equal(t, order.AccessToken, last.AccessToken)

	//遷移ごとに監査ログ
	var audits int64
	require.NoError(t, app.db.Model(&model.AuditLog{}).
		Where("action = ? AND resource_id = ?", model.AuditActionUpdateOrderStatus, id).
		Count(&audits).Error)
	assert.Equal(t, int64(4), audits)
}

func TestAdminOrder_IllegalTransitions(t *testing.T) {
	app := newTestApp(t)
	order := app.checkout(t, nil)
	path := fmt.Sprintf("/admin/orders/%d/status", app.orderID(t, order.AccessToken))

	for _, status := range []string{"preparing", "ready", "delivered", "pending"} {
		rec := app.client().do(http.MethodPut, path, map[string]string{"status": status}, bearerHeader(app.staffBearer))
		assert.Equal(t, http.StatusConflict, rec.Code, status)
	}

	var stored model.Order
	require.NoError(t, app.db.Where("access_token = ?", order.AccessToken).First(&stored).Error)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
	assert.Nil(t, stored.PreparingAt)
}

func TestAdminOrder_CancelRequiresReason(t *testing.T) {
	app := newTestApp(t)
	order := app.checkout(t, nil)
	path := fmt.Sprintf("/admin/orders/%d/status", app.orderID(t, order.AccessToken))

	rec := app.client().do(http.MethodPut, path, map[string]string{"status": "cancelled"}, bearerHeader(app.staffBearer))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "cancellation_reason is required", decodeJSON[ErrorResponse](t, rec).Error)

	var stored model.Order
	require.NoError(t, app.db.Where("access_token = ?", order.AccessToken).First(&stored).Error)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
	assert.Nil(t, stored.CancelledAt)
}

func TestAdminOrder_UnknownOrderAndBadStatus(t *testing.T) {
	app := newTestApp(t)

	rec := app.client().do(http.MethodPut, "/admin/orders/999/status", map[string]string{"status": "confirmed"}, bearerHeader(app.staffBearer))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.client().do(http.MethodPut, "/admin/orders/999/status", map[string]string{"status": "shipped"}, bearerHeader(app.staffBearer))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = app.client().do(http.MethodGet, "/admin/orders/abc", nil, bearerHeader(app.staffBearer))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminOrder_PatchDetailsKeepsGuardedFields(t *testing.T) {
	app := newTestApp(t)
	order := app.checkout(t, nil)
	id := app.orderID(t, order.AccessToken)

	rec := app.client().do(http.MethodPatch, fmt.Sprintf("/admin/orders/%d", id), map[string]interface{}{
		"customer_name": "Budi Santoso",
		"notes":         "extra ice",
		"status":        "delivered",
		"delivered_at":  "2026-01-01T00:00:00Z",
		"access_token":  "AAAAAAAAAAAAAAAAAAAAAAAAAA",
		"total":         "1",
	}, bearerHeader(app.staffBearer))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeJSON[usecase.AdminOrderOutput](t, rec)
	assert.Equal(t, "Budi Santoso", out.CustomerName)
	assert.Equal(t, "extra ice", out.Notes)
	assert.Equal(t, model.OrderStatusPending, out.Status)
	assert.Equal(t, order.AccessToken, out.AccessToken)
	assert.True(t, out.Total.Equal(order.Order.Total))
	assert.Nil(t, out.Timeline.DeliveredAt)
}

func TestAdminOrder_ListAndGet(t *testing.T) {
	app := newTestApp(t)
	first := app.checkout(t, nil)
	app.checkout(t, nil)

	rec := app.client().do(http.MethodGet, "/admin/orders?status=pending&limit=10", nil, bearerHeader(app.staffBearer))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeJSON[usecase.AdminOrderListOutput](t, rec)
	assert.Equal(t, int64(2), list.Total)
	assert.Len(t, list.Items, 2)

	rec = app.client().do(http.MethodGet, "/admin/orders?status=shipped", nil, bearerHeader(app.staffBearer))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := app.orderID(t, first.AccessToken)
	rec = app.client().do(http.MethodGet, fmt.Sprintf("/admin/orders/%d", id), nil, bearerHeader(app.staffBearer))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.Order.OrderNumber, decodeJSON[usecase.AdminOrderOutput](t, rec).OrderNumber)
}
