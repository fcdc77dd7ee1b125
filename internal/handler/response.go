package handler

import (
	"errors"
	"net/http"

	"storefront/internal/infra/logger"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if errors.Is(he, usecase.ErrTransientStorage) {
			logger.L().Warn("storage failure",
				zap.String("path", c.Path()),
				zap.Error(he.Err),
			)
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	logger.L().Error("unhandled error",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// bindAndValidate reports bind failures as 400 and rule failures as 422.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return usecase.NewHTTPError(http.StatusUnprocessableEntity, validator.Message(err))
	}
	return nil
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

func getRoleFromContext(c echo.Context) string {
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	return role
}
