package view_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/membora/pointsledger/internal/adapter/client/view"
	"github.com/membora/pointsledger/internal/core/domain"
	"github.com/membora/pointsledger/internal/core/port/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func product(id uint64, pointsPrice int64) *domain.Product {
	return &domain.Product{ID: id, Title: "reward", PointsPrice: pointsPrice, Available: true}
}

func newView(t *testing.T, svc *mock.MockService, balance int64) *view.BalanceView {
	t.Helper()

	logger, _ := zap.NewProduction()
	svc.EXPECT().GetBalance(gomock.Any(), uint64(1)).Return(balance, nil)

	v, err := view.NewBalanceView(context.Background(), svc, 1, logger)
	require.NoError(t, err)
	return v
}

func TestBalanceView_OptimisticDecrementVisibleWhilePending(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	v := newView(t, svc, 100)

	svc.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(10)).
		DoAndReturn(func(ctx context.Context, userID, productID uint64) (*domain.RedemptionOutcome, error) {
			// while the executor runs, the display already shows the
			// provisional decrement
			snap := v.Snapshot()
			assert.True(t, snap.IsPending)
			assert.Equal(t, int64(40), snap.DisplayedBalance)
			assert.Equal(t, view.StatePendingOptimistic, v.State())
			return domain.Confirmed(40), nil
		})

	outcome, err := v.Redeem(context.Background(), product(10, 60))
	assert.NoError(t, err)
	assert.Equal(t, domain.RedemptionConfirmed, outcome.Status)

	snap := v.Snapshot()
	assert.False(t, snap.IsPending)
	assert.Equal(t, int64(40), snap.DisplayedBalance)
	assert.Equal(t, view.StateSettled, v.State())
}

func TestBalanceView_AuthoritativeValueWinsOnSettle(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	v := newView(t, svc, 100)

	// a concurrent accrual landed during the round trip: the authoritative
	// new balance differs from the provisional 40
	svc.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(10)).
		Return(domain.Confirmed(65), nil)

	_, err := v.Redeem(context.Background(), product(10, 60))
	assert.NoError(t, err)
	assert.Equal(t, int64(65), v.Snapshot().DisplayedBalance)
}

func TestBalanceView_RollbackOnRejected(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	v := newView(t, svc, 100)

	svc.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(10)).
		Return(domain.Rejected(domain.ErrInsufficientPoints), nil)

	outcome, err := v.Redeem(context.Background(), product(10, 200))
	assert.NoError(t, err)
	assert.Equal(t, domain.RedemptionRejected, outcome.Status)

	// full rollback, no residual decrement
	snap := v.Snapshot()
	assert.False(t, snap.IsPending)
	assert.Equal(t, int64(100), snap.DisplayedBalance)
	assert.Equal(t, view.StateRolledBack, v.State())
}

func TestBalanceView_SecondRedemptionWhilePendingIsRejected(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	v := newView(t, svc, 100)

	svc.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(10)).
		DoAndReturn(func(ctx context.Context, userID, productID uint64) (*domain.RedemptionOutcome, error) {
			_, err := v.Redeem(ctx, product(11, 20))
			assert.Equal(t, domain.ErrRedemptionPending, err)
			return domain.Confirmed(40), nil
		})

	_, err := v.Redeem(context.Background(), product(10, 60))
	assert.NoError(t, err)
	assert.Equal(t, int64(40), v.Snapshot().DisplayedBalance)
}

func TestBalanceView_SequentialRedemptions(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	v := newView(t, svc, 100)

	svc.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(10)).
		Return(domain.Confirmed(40), nil)
	svc.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(11)).
		Return(domain.Rejected(domain.ErrInsufficientPoints), nil)

	outcome, err := v.Redeem(context.Background(), product(10, 60))
	assert.NoError(t, err)
	assert.Equal(t, domain.RedemptionConfirmed, outcome.Status)
	assert.Equal(t, int64(40), outcome.NewBalance)

	// second 60-point redemption against 40 rolls back to 40, never negative
	outcome, err = v.Redeem(context.Background(), product(11, 60))
	assert.NoError(t, err)
	assert.Equal(t, domain.RedemptionRejected, outcome.Status)
	assert.Equal(t, int64(40), v.Snapshot().DisplayedBalance)
}

func TestBalanceView_ResyncAfterRepeatedFailures(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	v := newView(t, svc, 100)

	svc.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(10)).
		Return(domain.Failed(domain.ErrStoreUnavailable), nil).Times(3)
	// the third consecutive failure triggers a refetch of the
	// authoritative balance
	svc.EXPECT().GetBalance(gomock.Any(), uint64(1)).Return(int64(70), nil)

	for i := 0; i < 3; i++ {
		outcome, err := v.Redeem(context.Background(), product(10, 60))
		assert.NoError(t, err)
		assert.Equal(t, domain.RedemptionFailed, outcome.Status)
	}

	assert.Equal(t, int64(70), v.Snapshot().DisplayedBalance)
}

func TestBalanceView_Refresh(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	v := newView(t, svc, 100)

	svc.EXPECT().GetBalance(gomock.Any(), uint64(1)).Return(int64(130), nil)

	err := v.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(130), v.Snapshot().DisplayedBalance)
}
