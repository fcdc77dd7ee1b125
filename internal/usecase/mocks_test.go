package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// TxManager / TxRepos
// =====================

// WithinTx は固定の repos で fn を呼ぶだけ
type txManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *txManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type txReposMock struct {
	orders   repo.OrderRepository
	products repo.ProductRepository
	audit    repo.AuditLogRepository
}

func (r *txReposMock) Orders() repo.OrderRepository { return r.orders }
func (r *txReposMock) OrderItems() repo.OrderItemRepository {
	panic("not used in usecase tests")
}
func (r *txReposMock) Products() repo.ProductRepository { return r.products }
func (r *txReposMock) AuditLogs() repo.AuditLogRepository { return r.audit }

// =====================
// Repository mocks
// =====================

type orderRepoMock struct{ mock.Mock }

func (m *orderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil {
		order.ID = 1
	}
	return args.Error(0)
}

func (m *orderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) FindByAccessToken(ctx context.Context, token string) (model.Order, error) {
	args := m.Called(ctx, token)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *orderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *orderRepoMock) ApplyTransition(ctx context.Context, orderID int64, t model.Transition) error {
	args := m.Called(ctx, orderID, t)
	return args.Error(0)
}

func (m *orderRepoMock) UpdateCustomerDetails(ctx context.Context, order model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *orderRepoMock) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	args := m.Called(ctx, cutoff)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Error(1)
}

func (m *productRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in usecase tests")
}

type auditRepoMock struct{ mock.Mock }

func (m *auditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *auditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used in usecase tests")
}

type settingsRepoMock struct{ mock.Mock }

func (m *settingsRepoMock) AutoCancel(ctx context.Context) (model.AutoCancelSettings, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(model.AutoCancelSettings)
	return s, args.Error(1)
}

func (m *settingsRepoMock) SaveAutoCancel(ctx context.Context, s model.AutoCancelSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *settingsRepoMock) DeliveryFee(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(decimal.Decimal)
	return d, args.Error(1)
}

func (m *settingsRepoMock) SaveDeliveryFee(ctx context.Context, fee decimal.Decimal) error {
	panic("not used in usecase tests")
}

// =====================
// ports
// =====================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqTokens struct {
	tokens []string
	i      int
}

func (s *seqTokens) Issue() string {
	t := s.tokens[s.i%len(s.tokens)]
	s.i++
	return t
}

type fixedNumbers struct{}

func (fixedNumbers) Next(now time.Time) (string, error) {
	return "ORD-" + now.Format("20060102") + "-AAAAA", nil
}

type failingNumbers struct{ err error }

func (f failingNumbers) Next(time.Time) (string, error) { return "", f.err }

type fixedIDs struct{}

func (fixedIDs) NewID() string { return "evt-1" }

// 受け取ったイベントを記録する
type recordingNotifier struct {
	mu     sync.Mutex
	events []model.OrderEvent
	err    error
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, ev model.OrderEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

// =====================
// helpers
// =====================

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

const testToken = "01HV0000000000000000000001"

func pendingOrder(t *testing.T, id int64, createdAt time.Time) model.Order {
	t.Helper()
	o, err := model.NewOrder(
		model.CustomerSnapshot{Name: "Budi", Phone: "0812-345-6789"},
		[]model.LineItem{{ProductID: 1, ProductName: "Es Teh", UnitPrice: decimal.NewFromInt(25000), Quantity: 2}},
		decimal.NewFromInt(10000),
		"ORD-20260301-ABCDE", testToken, createdAt,
	)
	require.NoError(t, err)
	o.ID = id
	return *o
}

func withStatus(t *testing.T, o model.Order, steps ...func(*model.Order) (model.Transition, error)) model.Order {
	t.Helper()
	for _, s := range steps {
		_, err := s(&o)
		require.NoError(t, err)
	}
	return o
}

func confirm(o *model.Order) (model.Transition, error)   { return o.Confirm(now) }
func prepare(o *model.Order) (model.Transition, error)   { return o.StartPreparing(now) }
func ready(o *model.Order) (model.Transition, error)     { return o.MarkReady(now) }
func deliver(o *model.Order) (model.Transition, error)   { return o.MarkDelivered(now) }
func cancelled(o *model.Order) (model.Transition, error) { return o.Cancel("closed", now) }

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := AsHTTPError(err)
	if assert.True(t, ok, "want *HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status)
	}
}
