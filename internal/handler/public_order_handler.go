package handler

import (
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/domain/policy"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	sessionName        = "storefront_order"
	sessionVerifiedKey = "verified_tokens"
	// 1セッションで覚えておくトークン数
	maxVerifiedTokens = 20
)

// GET /orders/:token と POST /orders/:token/verify
type PublicOrderHandler struct {
	uc    *usecase.PublicOrderUsecase
	store sessions.Store
}

func NewPublicOrderHandler(uc *usecase.PublicOrderUsecase, store sessions.Store) *PublicOrderHandler {
	return &PublicOrderHandler{uc: uc, store: store}
}

// NewSessionStore builds the cookie store that remembers verified tokens.
func NewSessionStore(cfg config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/orders",
		MaxAge:   24 * 60 * 60,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CSRFProtect guards the public order group with gorilla/csrf.
func CSRFProtect(cfg config.Config) echo.MiddlewareFunc {
	protect := csrf.Protect(
		[]byte(cfg.CSRFKey),
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/orders"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(cfg.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"invalid csrf token"}`))
		})),
	)
	return echo.WrapMiddleware(protect)
}

type VerifyPhoneRequest struct {
	CustomerPhone string `json:"customer_phone" form:"customer_phone" validate:"required,max=32"`
}

type VerificationRequiredResponse struct {
	VerificationRequired bool   `json:"verification_required"`
	CSRFToken            string `json:"csrf_token"`
}

type ExpiredResponse struct {
	OrderNumber string `json:"order_number"`
	Expired     bool   `json:"expired"`
}

func (h *PublicOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, limiter *middleware.WindowLimiter) {
	g := e.Group("/orders")
	g.Use(middleware.OptionalAuth(cfg))
	g.Use(CSRFProtect(cfg))

	g.GET("/:token", h.view)
	g.POST("/:token/verify", h.verify, middleware.RateLimit(limiter))
}

func (h *PublicOrderHandler) view(c echo.Context) error {
	token := c.Param("token")

	userID, _ := getUserIDFromContext(c)
	actor := policy.ActorFromRole(userID, model.Role(getRoleFromContext(c)))

	out, err := h.uc.View(c.Request().Context(), actor, token, h.verifiedPhone(c, token))
	if err != nil {
		return writeError(c, err)
	}
	return h.render(c, out)
}

func (h *PublicOrderHandler) verify(c echo.Context) error {
	token := c.Param("token")

	var req VerifyPhoneRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Verify(c.Request().Context(), token, req.CustomerPhone)
	if err != nil {
		return writeError(c, err)
	}
	if out.State == usecase.PublicDetail {
		if err := h.markVerified(c, token, out.VerifiedPhone); err != nil {
			return writeError(c, err)
		}
	}
	return h.render(c, out)
}

func (h *PublicOrderHandler) render(c echo.Context, out usecase.PublicViewOutput) error {
	switch out.State {
	case usecase.PublicStaffRedirect:
		return c.Redirect(http.StatusFound, fmt.Sprintf("/admin/orders/%d", out.OrderID))
	case usecase.PublicExpired:
		//注文番号以外は返さない
		return c.JSON(http.StatusGone, ExpiredResponse{OrderNumber: out.OrderNumber, Expired: true})
	case usecase.PublicDetail:
		return c.JSON(http.StatusOK, out.Detail)
	}
	return c.JSON(http.StatusOK, VerificationRequiredResponse{
		VerificationRequired: true,
		CSRFToken:            csrf.Token(c.Request()),
	})
}

// セッションには "token:正規化済み電話番号" を保存する
func (h *PublicOrderHandler) verifiedTokens(c echo.Context) (*sessions.Session, []string) {
	//壊れたcookieは新しいセッション扱い
	sess, _ := h.store.Get(c.Request(), sessionName)
	entries, _ := sess.Values[sessionVerifiedKey].([]string)
	return sess, entries
}

func verifiedEntry(token, phone string) string {
	return token + ":" + phone
}

// verifiedPhone returns the phone this session verified for token, or "".
func (h *PublicOrderHandler) verifiedPhone(c echo.Context, token string) string {
	_, entries := h.verifiedTokens(c)
	for _, e := range entries {
		if t, p, ok := strings.Cut(e, ":"); ok && t == token {
			return p
		}
	}
	return ""
}

func (h *PublicOrderHandler) markVerified(c echo.Context, token, phone string) error {
	sess, entries := h.verifiedTokens(c)
	//同じトークンの古い番号は置き換える
	kept := entries[:0]
	for _, e := range entries {
		if t, _, _ := strings.Cut(e, ":"); t != token {
			kept = append(kept, e)
		}
	}
	kept = append(kept, verifiedEntry(token, phone))
	if len(kept) > maxVerifiedTokens {
		kept = kept[len(kept)-maxVerifiedTokens:]
	}
	sess.Values[sessionVerifiedKey] = kept
	return sess.Save(c.Request(), c.Response())
}
