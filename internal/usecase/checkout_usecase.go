package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/domain/phone"
	repo "storefront/internal/repository"
	"storefront/internal/whatsapp"

	"github.com/shopspring/decimal"
)

// トークン/注文番号が衝突したときの作成試行回数
const maxCreateAttempts = 3

const maxLineQuantity = 99

// 公開URLとWhatsAppリンクの組み立てに使う値
type LinkConfig struct {
	PublicBaseURL       string
	StoreWhatsAppNumber string
	CountryCode         string
}

func (c LinkConfig) TrackingURL(token string) string {
	return c.PublicBaseURL + "/orders/" + token
}

type CheckoutItemInput struct {
	ProductID int64
	Quantity  int64
}

type CheckoutInput struct {
	//ゲストはnil
	UserID   *int64
	Customer model.CustomerSnapshot
	Items    []CheckoutItemInput
}

type CheckoutOutput struct {
	AccessToken string      `json:"access_token"`
	TrackingURL string      `json:"tracking_url"`
	WhatsAppURL string      `json:"whatsapp_url"`
	Order       OrderOutput `json:"order"`
}

type CheckoutUsecase struct {
	tx       repo.TransactionManager
	settings repo.SettingsRepository
	tokens   TokenIssuer
	numbers  OrderNumberGenerator
	clock    Clock
	links    LinkConfig
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	settings repo.SettingsRepository,
	tokens TokenIssuer,
	numbers OrderNumberGenerator,
	clock Clock,
	links LinkConfig,
) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx, settings: settings, tokens: tokens, numbers: numbers, clock: clock, links: links}
}

// Checkout creates a pending order from catalog lines.
func (u *CheckoutUsecase) Checkout(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	lines, err := validateCheckout(in, u.links.CountryCode)
	if err != nil {
		return CheckoutOutput{}, err
	}

	fee, err := u.settings.DeliveryFee(ctx)
	if err != nil {
		return CheckoutOutput{}, storageError(err)
	}

	var order *model.Order
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		order, err = u.create(ctx, in, lines, fee)
		if !errors.Is(err, repo.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return CheckoutOutput{}, err
		}
		return CheckoutOutput{}, storageError(err)
	}

	tracking := u.links.TrackingURL(order.AccessToken)
	return CheckoutOutput{
		AccessToken: order.AccessToken,
		TrackingURL: tracking,
		WhatsAppURL: whatsapp.Link(u.links.StoreWhatsAppNumber, u.links.CountryCode, whatsapp.CheckoutMessage(order, tracking)),
		Order:       toOrderOutput(*order),
	}, nil
}

func (u *CheckoutUsecase) create(ctx context.Context, in CheckoutInput, lines []CheckoutItemInput, fee decimal.Decimal) (*model.Order, error) {
	var order *model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ids := make([]int64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}

		//カタログから名前と単価をスナップショット
		products, err := r.Products().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[int64]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		items := make([]model.LineItem, 0, len(lines))
		for _, l := range lines {
			p, ok := byID[l.ProductID]
			if !ok {
				return validationError("product unavailable")
			}
			items = append(items, model.LineItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				UnitPrice:   p.Price,
				Quantity:    l.Quantity,
			})
		}

		now := u.clock.Now()
		number, err := u.numbers.Next(now)
		if err != nil {
			return fmt.Errorf("order number: %w", err)
		}
		o, err := model.NewOrder(in.Customer, items, fee, number, u.tokens.Issue(), now)
		if errors.Is(err, model.ErrEmptyItems) {
			return validationError("items are required")
		}
		if errors.Is(err, model.ErrInvalidAmount) {
			return validationError("invalid amount")
		}
		if err != nil {
			return err
		}
		o.UserID = in.UserID

		if err := r.Orders().Create(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// 同じ商品の行はまとめる
func validateCheckout(in CheckoutInput, countryCode string) ([]CheckoutItemInput, error) {
	if strings.TrimSpace(in.Customer.Name) == "" {
		return nil, validationError("customer_name is required")
	}
	if len(phone.Normalize(in.Customer.Phone, countryCode)) < 8 {
		return nil, validationError("invalid customer_phone")
	}
	if len(in.Items) == 0 {
		return nil, validationError("items are required")
	}

	merged := make([]CheckoutItemInput, 0, len(in.Items))
	index := make(map[int64]int, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity < 1 {
			return nil, validationError("invalid item")
		}
		if i, ok := index[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
		} else {
			index[it.ProductID] = len(merged)
			merged = append(merged, it)
		}
	}
	for _, it := range merged {
		if it.Quantity > maxLineQuantity {
			return nil, validationError("quantity too large")
		}
	}
	return merged, nil
}
