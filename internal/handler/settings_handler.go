package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/settings/auto-cancel
type SettingsHandler struct {
	uc *usecase.SettingsUsecase
}

func NewSettingsHandler(uc *usecase.SettingsUsecase) *SettingsHandler {
	return &SettingsHandler{uc: uc}
}

type AutoCancelSettingsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
	Minutes int   `json:"minutes" validate:"gte=5,lte=1440"`
}

type AutoCancelSettingsResponse struct {
	Enabled bool `json:"enabled"`
	Minutes int  `json:"minutes"`
}

func (h *SettingsHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/admin/settings",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)

	g.GET("/auto-cancel", h.getAutoCancel)
	g.PUT("/auto-cancel", h.updateAutoCancel)
}

func (h *SettingsHandler) getAutoCancel(c echo.Context) error {
	s, err := h.uc.GetAutoCancel(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, AutoCancelSettingsResponse{Enabled: s.Enabled, Minutes: s.Minutes})
}

func (h *SettingsHandler) updateAutoCancel(c echo.Context) error {
	var req AutoCancelSettingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	staffID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	s, err := h.uc.UpdateAutoCancel(c.Request().Context(), staffID, model.AutoCancelSettings{
		Enabled: *req.Enabled,
		Minutes: req.Minutes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, AutoCancelSettingsResponse{Enabled: s.Enabled, Minutes: s.Minutes})
}
