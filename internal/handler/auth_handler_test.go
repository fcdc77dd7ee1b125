package handler

import (
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.client().do(http.MethodPost, "/auth/login",
		map[string]string{"email": "staff@example.com", "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeJSON[auth.LoginOutput](t, rec)
	assert.NotEmpty(t, out.AccessToken)
	assert.Equal(t, model.RoleStaff, out.Role)

	//発行したトークンで管理APIに入れる
	rec = app.client().do(http.MethodGet, "/admin/orders", nil, bearerHeader("Bearer "+out.AccessToken))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.client().do(http.MethodPost, "/auth/login",
		map[string]string{"email": "staff@example.com", "password": "wrong password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.client().do(http.MethodPost, "/auth/login",
		map[string]string{"email": "nobody@example.com", "password": testPassword}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.client().do(http.MethodPost, "/auth/login", map[string]string{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
