package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type sweepFixture struct {
	tx       *txManagerMock
	orders   *orderRepoMock
	audit    *auditRepoMock
	settings *settingsRepoMock
	notifier *recordingNotifier
	logs     *observer.ObservedLogs
	uc       *AutoCancelUsecase
}

func newSweepFixture() *sweepFixture {
	core, logs := observer.New(zap.WarnLevel)
	f := &sweepFixture{
		orders:   new(orderRepoMock),
		audit:    new(auditRepoMock),
		settings: new(settingsRepoMock),
		notifier: &recordingNotifier{},
		logs:     logs,
	}
	f.tx = &txManagerMock{Repos: &txReposMock{orders: f.orders, audit: f.audit}}
	f.uc = NewAutoCancelUsecase(f.tx, f.orders, f.settings, f.notifier, fixedIDs{}, fixedClock{now: now}, zap.New(core))
	return f
}

func TestAutoCancel_DisabledIsNoop(t *testing.T) {
	f := newSweepFixture()
	f.settings.On("AutoCancel", mock.Anything).Return(model.DefaultAutoCancelSettings(), nil).Once()

	res, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Enabled: false, Minutes: 30}, res)
	f.orders.AssertNotCalled(t, "ListExpiredPending", mock.Anything, mock.Anything)
}

func TestAutoCancel_CancelsOnlyExpiredPending(t *testing.T) {
	f := newSweepFixture()
	stale := pendingOrder(t, 1, now.Add(-31*time.Minute))

	f.settings.On("AutoCancel", mock.Anything).Return(model.AutoCancelSettings{Enabled: true, Minutes: 30}, nil).Once()
	// 29分前の注文はcutoffより新しいので候補に入らない
	f.orders.On("ListExpiredPending", mock.Anything, now.Add(-30*time.Minute)).Return([]model.Order{stale}, nil).Once()
	f.tx.On("WithinTx", mock.Anything).Once()
	f.orders.On("FindByID", mock.Anything, int64(1)).Return(stale, nil).Once()
	f.orders.On("ApplyTransition", mock.Anything, int64(1), mock.MatchedBy(func(tr model.Transition) bool {
		return tr.From == model.OrderStatusPending &&
			tr.To == model.OrderStatusCancelled &&
			tr.Reason != nil && *tr.Reason == "Auto-cancelled: not confirmed within 30 minutes"
	})).Return(nil).Once()
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorType == model.AuditActorSystem && l.ActorUserID == nil && l.ResourceID == 1
	})).Return(nil).Once()

	res, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Enabled: true, Minutes: 30, Candidates: 1, Cancelled: 1}, res)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, model.OrderStatusCancelled, f.notifier.events[0].To)
	f.orders.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestAutoCancel_SkipsOrdersConfirmedMeanwhile(t *testing.T) {
	f := newSweepFixture()
	listed := pendingOrder(t, 1, now.Add(-time.Hour))
	confirmedNow := withStatus(t, listed, confirm)
	raced := pendingOrder(t, 2, now.Add(-time.Hour))

	f.settings.On("AutoCancel", mock.Anything).Return(model.AutoCancelSettings{Enabled: true, Minutes: 15}, nil).Once()
	f.orders.On("ListExpiredPending", mock.Anything, mock.Anything).Return([]model.Order{listed, raced}, nil).Once()
	f.tx.On("WithinTx", mock.Anything).Twice()
	f.orders.On("FindByID", mock.Anything, int64(1)).Return(confirmedNow, nil).Once()
	f.orders.On("FindByID", mock.Anything, int64(2)).Return(raced, nil).Once()
	f.orders.On("ApplyTransition", mock.Anything, int64(2), mock.Anything).Return(repo.ErrStaleStatus).Once()

	res, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, 2, res.Skipped)
	assert.Zero(t, res.Cancelled)
	assert.Zero(t, res.Failed)
	assert.Empty(t, f.notifier.events)
	f.orders.AssertNotCalled(t, "ApplyTransition", mock.Anything, int64(1), mock.Anything)
}

func TestAutoCancel_OneFailureDoesNotStopTheRun(t *testing.T) {
	f := newSweepFixture()
	a := pendingOrder(t, 1, now.Add(-time.Hour))
	b := pendingOrder(t, 2, now.Add(-time.Hour))

	f.settings.On("AutoCancel", mock.Anything).Return(model.AutoCancelSettings{Enabled: true, Minutes: 30}, nil).Once()
	f.orders.On("ListExpiredPending", mock.Anything, mock.Anything).Return([]model.Order{a, b}, nil).Once()
	f.tx.On("WithinTx", mock.Anything).Twice()
	f.orders.On("FindByID", mock.Anything, int64(1)).Return(nil, errors.New("conn reset")).Once()
	f.orders.On("FindByID", mock.Anything, int64(2)).Return(b, nil).Once()
	f.orders.On("ApplyTransition", mock.Anything, int64(2), mock.Anything).Return(nil).Once()
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Cancelled)

	entries := f.logs.FilterMessage("auto cancel failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["order_id"])
}

func TestAutoCancel_NotifyFailureStillCounts(t *testing.T) {
	f := newSweepFixture()
	f.notifier.err = errors.New("broker down")
	o := pendingOrder(t, 1, now.Add(-time.Hour))

	f.settings.On("AutoCancel", mock.Anything).Return(model.AutoCancelSettings{Enabled: true, Minutes: 30}, nil).Once()
	f.orders.On("ListExpiredPending", mock.Anything, mock.Anything).Return([]model.Order{o}, nil).Once()
	f.tx.On("WithinTx", mock.Anything).Once()
	f.orders.On("FindByID", mock.Anything, int64(1)).Return(o, nil).Once()
	f.orders.On("ApplyTransition", mock.Anything, int64(1), mock.Anything).Return(nil).Once()
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, 1, f.logs.FilterMessage("order notification failed").Len())
}

func TestAutoCancel_SettingsAndSelectionErrors(t *testing.T) {
	t.Run("settings", func(t *testing.T) {
		f := newSweepFixture()
		f.settings.On("AutoCancel", mock.Anything).Return(nil, errors.New("db down")).Once()
		_, err := f.uc.Run(context.Background())
		assert.Error(t, err)
	})

	t.Run("out of range minutes", func(t *testing.T) {
		f := newSweepFixture()
		f.settings.On("AutoCancel", mock.Anything).Return(model.AutoCancelSettings{Enabled: true, Minutes: 1}, nil).Once()
		_, err := f.uc.Run(context.Background())
		assertErrContains(t, err, "out of range")
		f.orders.AssertNotCalled(t, "ListExpiredPending", mock.Anything, mock.Anything)
	})

	t.Run("selection", func(t *testing.T) {
		f := newSweepFixture()
		f.settings.On("AutoCancel", mock.Anything).Return(model.AutoCancelSettings{Enabled: true, Minutes: 30}, nil).Once()
		f.orders.On("ListExpiredPending", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
		_, err := f.uc.Run(context.Background())
		assertErrContains(t, err, "list expired pending orders")
	})
}

func TestAutoCancel_StopsWhenContextDone(t *testing.T) {
	f := newSweepFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.settings.On("AutoCancel", mock.Anything).Return(model.AutoCancelSettings{Enabled: true, Minutes: 30}, nil).Once()
	f.orders.On("ListExpiredPending", mock.Anything, mock.Anything).
		Return([]model.Order{pendingOrder(t, 1, now.Add(-time.Hour))}, nil).Once()

	res, err := f.uc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Candidates)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAutoCancelReason(t *testing.T) {
	assert.Equal(t, "Auto-cancelled: not confirmed within 45 minutes", AutoCancelReason(45))
}
