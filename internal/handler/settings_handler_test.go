package handler

import (
	"net/http"
	"testing"

	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_AutoCancel(t *testing.T) {
	app := newTestApp(t)
	staff := bearerHeader(app.staffBearer)

	rec := app.client().do(http.MethodGet, "/admin/settings/auto-cancel", nil, staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, AutoCancelSettingsResponse{Enabled: false, Minutes: 30}, decodeJSON[AutoCancelSettingsResponse](t, rec))

	for _, minutes := range []int{4, 1441} {
		rec = app.client().do(http.MethodPut, "/admin/settings/auto-cancel",
			map[string]interface{}{"enabled": true, "minutes": minutes}, staff)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, minutes)
	}

	rec = app.client().do(http.MethodPut, "/admin/settings/auto-cancel",
		map[string]interface{}{"minutes": 15}, staff)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "enabled is required", decodeJSON[ErrorResponse](t, rec).Error)

	rec = app.client().do(http.MethodPut, "/admin/settings/auto-cancel",
		map[string]interface{}{"enabled": true, "minutes": 15}, staff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.client().do(http.MethodGet, "/admin/settings/auto-cancel", nil, staff)
	assert.Equal(t, AutoCancelSettingsResponse{Enabled: true, Minutes: 15}, decodeJSON[AutoCancelSettingsResponse](t, rec))

	var audits int64
	require.NoError(t, app.db.Model(&model.AuditLog{}).Where("action = ?", model.AuditActionUpdateSettings).Count(&audits).Error)
	assert.Equal(t, int64(1), audits)

	rec = app.client().do(http.MethodPut, "/admin/settings/auto-cancel",
		map[string]interface{}{"enabled": true, "minutes": 15}, bearerHeader(app.customerBearer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
