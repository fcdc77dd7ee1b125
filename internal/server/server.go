package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handlers is everything the HTTP surface is built from.
type Handlers struct {
	Checkout    *handler.CheckoutHandler
	PublicOrder *handler.PublicOrderHandler
	MyOrders    *handler.OrderHandler
	AdminOrders *handler.AdminOrderHandler
	Settings    *handler.SettingsHandler
	Auth        *handler.AuthHandler
}

// New builds the echo instance with the common middleware and every route.
func New(cfg config.Config, log *zap.Logger, userRepo repository.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	//RealIPはレート制限のキーになる
	e.IPExtractor = middleware.ClientIPExtractor(cfg.TrustedProxies)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Secure())
	e.Use(echomw.Gzip())

	limiter := middleware.NewWindowLimiter(cfg.VerifyLimitPerMinute, cfg.VerifyLimitPerHour)
	RegisterRoutes(e, cfg, userRepo, limiter, h)
	return e
}

// Start serves until ctx is done, then drains in-flight requests.
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
