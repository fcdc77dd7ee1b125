package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// POST /checkout
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

// statusや*_atはここに無いので受け取っても捨てられる
type CheckoutRequest struct {
	CustomerName    string                `json:"customer_name" validate:"required,max=255"`
	CustomerPhone   string                `json:"customer_phone" validate:"required,max=32"`
	CustomerAddress *string               `json:"customer_address" validate:"omitempty,max=1000"`
	Notes           string                `json:"notes" validate:"max=1000"`
	Items           []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CheckoutItemRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int64 `json:"quantity" validate:"gt=0,lte=99"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.POST("/checkout", h.checkout, middleware.OptionalAuth(cfg))
}

func (h *CheckoutHandler) checkout(c echo.Context) error {
	var req CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	in := usecase.CheckoutInput{
		Customer: model.CustomerSnapshot{
			Name:    req.CustomerName,
			Phone:   req.CustomerPhone,
			Address: req.CustomerAddress,
			Notes:   req.Notes,
		},
		Items: make([]usecase.CheckoutItemInput, 0, len(req.Items)),
	}
	//ログイン中なら注文に紐付ける
	if userID, ok := getUserIDFromContext(c); ok {
		in.UserID = &userID
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, usecase.CheckoutItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	out, err := h.uc.Checkout(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}
