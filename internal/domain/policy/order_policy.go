// Package policy decides who may see or change an order.
package policy

import (
	"crypto/subtle"

	"storefront/internal/domain/model"
)

type ActorKind int

const (
	ActorAnonymous ActorKind = iota
	ActorCustomer
	ActorStaff
)

// Actor is the caller as established by authentication.
type Actor struct {
	Kind   ActorKind
	UserID int64
}

func Anonymous() Actor { return Actor{Kind: ActorAnonymous} }

func Customer(userID int64) Actor { return Actor{Kind: ActorCustomer, UserID: userID} }

func Staff(userID int64) Actor { return Actor{Kind: ActorStaff, UserID: userID} }

func (a Actor) IsStaff() bool { return a.Kind == ActorStaff }

// ActorFromRole maps an authenticated role to an actor.
func ActorFromRole(userID int64, role model.Role) Actor {
	if userID <= 0 {
		return Anonymous()
	}
	if role.IsStaff() {
		return Staff(userID)
	}
	return Customer(userID)
}

// Access is everything a request presents for one order.
type Access struct {
	Actor          Actor
	PresentedToken string
	PhoneVerified  bool
}

type Decision struct {
	View   bool
	Update bool
	Delete bool
	// Expired is set when token access was refused because the order is finished.
	Expired bool
}

// IsAccessExpired reports whether the public link of o no longer works.
func IsAccessExpired(o *model.Order) bool {
	return o.Status == model.OrderStatusDelivered || o.Status == model.OrderStatusCancelled
}

// Decide evaluates the visibility rules for o. It performs no I/O, so callers
// must pass a freshly loaded order on every request.
func Decide(o *model.Order, a Access) Decision {
	if o == nil {
		return Decision{}
	}

	//スタッフは全注文を閲覧・更新・削除できる
	if a.Actor.IsStaff() {
		return Decision{View: true, Update: true, Delete: true}
	}

	tokenOK := tokenMatches(o.AccessToken, a.PresentedToken)
	//トークンのリンクは本人でも完了後は使えない
	if tokenOK && IsAccessExpired(o) {
		return Decision{Expired: true}
	}

	//ログイン中の本人は閲覧のみ
	if a.Actor.Kind == ActorCustomer && o.UserID != nil && *o.UserID == a.Actor.UserID {
		return Decision{View: true}
	}

	//それ以外はトークン＋電話番号確認
	if !tokenOK {
		return Decision{}
	}
	return Decision{View: a.PhoneVerified}
}

// CanTransition reports whether actor may drive status changes or deletion.
// Ownership never grants it.
func CanTransition(a Actor) bool {
	return a.IsStaff()
}

func tokenMatches(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
