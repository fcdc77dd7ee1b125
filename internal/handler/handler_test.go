package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	"storefront/internal/infra/idgen"
	infrarepo "storefront/internal/infra/repository"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "correct horse battery"

type testApp struct {
	e         *echo.Echo
	db        *gorm.DB
	productID int64

	staffBearer    string
	customerID     int64
	customerBearer string
	otherBearer    string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := config.Config{
		GoEnv:                "test",
		JWTSecret:            "test-secret",
		JWTTTL:               15 * time.Minute,
		SessionKey:           "test-session-key",
		CSRFKey:              "0123456789abcdef0123456789abcdef",
		PublicBaseURL:        "https://shop.example.com",
		StoreWhatsAppNumber:  "0811-000-111",
		PhoneCountryCode:     "62",
		VerifyLimitPerMinute: 5,
		VerifyLimitPerHour:   10,
	}

	orders := infrarepo.NewOrderGormRepository(gdb)
	products := infrarepo.NewProductGormRepository(gdb)
	users := infrarepo.NewUserGormRepository(gdb)
	settings := infrarepo.NewSettingsGormRepository(gdb, decimal.NewFromInt(10000))
	audit := infrarepo.NewAuditLogGormRepository(gdb)
	tx := infrarepo.NewTxManagerGorm(gdb)
	clock := usecase.SystemClock{}
	ids := idgen.UUIDGenerator{}

	p, err := products.Create(ctx, model.Product{Name: "Es Teh", Price: decimal.NewFromInt(25000), IsAvailable: true})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	staff := &model.User{Email: "staff@example.com", PasswordHash: string(hash), Role: model.RoleStaff, IsActive: true}
	customer := &model.User{Email: "ani@example.com", PasswordHash: string(hash), Role: model.RoleCustomer, IsActive: true}
	other := &model.User{Email: "other@example.com", PasswordHash: string(hash), Role: model.RoleCustomer, IsActive: true}
	for _, u := range []*model.User{staff, customer, other} {
		require.NoError(t, users.Create(ctx, u))
	}

	issuer, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	require.NoError(t, err)
	bearer := func(u *model.User) string {
		tok, _, err := issuer.Issue(u.ID, u.Role, u.TokenVersion, time.Now())
		require.NoError(t, err)
		return "Bearer " + tok
	}

	links := usecase.LinkConfig{
		PublicBaseURL:       cfg.PublicBaseURL,
		StoreWhatsAppNumber: cfg.StoreWhatsAppNumber,
		CountryCode:         cfg.PhoneCountryCode,
	}

	e := echo.New()
	e.Validator = validator.New()
	e.IPExtractor = middleware.ClientIPExtractor(cfg.TrustedProxies)
	NewAuthHandler(auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), issuer, clock)).RegisterRoutes(e)
	NewCheckoutHandler(usecase.NewCheckoutUsecase(tx, settings, idgen.NewULIDIssuer(), idgen.NewOrderNumberGenerator(), clock, links)).
		RegisterRoutes(e, cfg)
	NewPublicOrderHandler(usecase.NewPublicOrderUsecase(orders, cfg.PhoneCountryCode), NewSessionStore(cfg)).
		RegisterRoutes(e, cfg, middleware.NewWindowLimiter(cfg.VerifyLimitPerMinute, cfg.VerifyLimitPerHour))
	NewOrderHandler(usecase.NewOrderUsecase(orders)).RegisterRoutes(e, cfg, users)
	NewAdminOrderHandler(usecase.NewAdminOrderUsecase(tx, orders, nil, ids, clock, cfg.PhoneCountryCode, nil)).
		RegisterRoutes(e, cfg, users)
	NewSettingsHandler(usecase.NewSettingsUsecase(settings, audit, clock)).RegisterRoutes(e, cfg, users)

	return &testApp{
		e:              e,
		db:             gdb,
		productID:      p.ID,
		staffBearer:    bearer(staff),
		customerID:     customer.ID,
		customerBearer: bearer(customer),
		otherBearer:    bearer(other),
	}
}

// client keeps cookies between requests like a browser.
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client() *client {
	return &client{app: a, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.app.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return rec
}

func bearerHeader(b string) map[string]string {
	return map[string]string{"Authorization": b}
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testApp) checkout(t *testing.T, headers map[string]string) usecase.CheckoutOutput {
	t.Helper()
	rec := a.client().do(http.MethodPost, "/checkout", map[string]interface{}{
		"customer_name":  "Budi",
		"customer_phone": "0812-345-6789",
		"notes":          "less sugar",
		"items":          []map[string]interface{}{{"product_id": a.productID, "quantity": 2}},
	}, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[usecase.CheckoutOutput](t, rec)
}

// 注文IDはトークンから引く
func (a *testApp) orderID(t *testing.T, token string) int64 {
	t.Helper()
	var o model.Order
	require.NoError(t, a.db.Where("access_token = ?", token).First(&o).Error)
	return o.ID
}
