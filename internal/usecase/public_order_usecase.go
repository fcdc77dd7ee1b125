package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/phone"
	"storefront/internal/domain/policy"
	repo "storefront/internal/repository"
)

// PublicViewState is what GET /orders/:token should answer with.
type PublicViewState int

const (
	PublicVerificationRequired PublicViewState = iota
	PublicDetail
	PublicExpired
	PublicStaffRedirect
)

type PublicViewOutput struct {
	State PublicViewState
	//PublicStaffRedirect のときだけ
	OrderID int64
	//PublicExpired のときは注文番号だけ
	OrderNumber string
	Detail      *OrderOutput
	//Verify成功時だけ。セッションに保存する正規化済み番号
	VerifiedPhone string
}

// トークン＋電話番号で注文を閲覧させる
type PublicOrderUsecase struct {
	orders      repo.OrderRepository
	countryCode string
}

func NewPublicOrderUsecase(orders repo.OrderRepository, countryCode string) *PublicOrderUsecase {
	return &PublicOrderUsecase{orders: orders, countryCode: countryCode}
}

// View re-reads the order and applies the visibility policy. verifiedPhone is
// the number the caller's session verified for token, or "". It is checked
// against the order again, so a corrected phone invalidates old sessions.
func (u *PublicOrderUsecase) View(ctx context.Context, actor policy.Actor, token string, verifiedPhone string) (PublicViewOutput, error) {
	o, err := u.orders.FindByAccessToken(ctx, token)
	if errors.Is(err, repo.ErrNotFound) {
		//存在しないトークンも確認画面を返す
		return PublicViewOutput{State: PublicVerificationRequired}, nil
	}
	if err != nil {
		return PublicViewOutput{}, storageError(err)
	}

	phoneVerified := verifiedPhone != "" && phone.Verify(&o, verifiedPhone, u.countryCode)
	d := policy.Decide(&o, policy.Access{Actor: actor, PresentedToken: token, PhoneVerified: phoneVerified})
	switch {
	case actor.IsStaff():
		return PublicViewOutput{State: PublicStaffRedirect, OrderID: o.ID}, nil
	case d.Expired:
		return PublicViewOutput{State: PublicExpired, OrderNumber: o.OrderNumber}, nil
	case d.View:
		out := toOrderOutput(o)
		return PublicViewOutput{State: PublicDetail, Detail: &out}, nil
	}
	return PublicViewOutput{State: PublicVerificationRequired}, nil
}

// Verify checks the submitted phone for token. Unknown tokens and wrong
// numbers fail the same way. An expired order reports PublicExpired.
func (u *PublicOrderUsecase) Verify(ctx context.Context, token string, submittedPhone string) (PublicViewOutput, error) {
	o, err := u.orders.FindByAccessToken(ctx, token)
	if errors.Is(err, repo.ErrNotFound) {
		return PublicViewOutput{}, phoneMismatch()
	}
	if err != nil {
		return PublicViewOutput{}, storageError(err)
	}

	//期限切れは電話番号の一致に関係なく拒否
	if policy.IsAccessExpired(&o) {
		return PublicViewOutput{State: PublicExpired, OrderNumber: o.OrderNumber}, nil
	}
	if !phone.Verify(&o, submittedPhone, u.countryCode) {
		return PublicViewOutput{}, phoneMismatch()
	}

	d := policy.Decide(&o, policy.Access{Actor: policy.Anonymous(), PresentedToken: token, PhoneVerified: true})
	if !d.View {
		return PublicViewOutput{}, phoneMismatch()
	}
	out := toOrderOutput(o)
	return PublicViewOutput{State: PublicDetail, Detail: &out, VerifiedPhone: phone.Normalize(submittedPhone, u.countryCode)}, nil
}
