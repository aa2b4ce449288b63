package view

import (
	"context"
	"sync"

	"github.com/membora/pointsledger/internal/core/domain"
	"github.com/membora/pointsledger/internal/core/port"
	"go.uber.org/zap"
)

// State of the per-attempt display machine. Settled and RolledBack are the
// two terminal reconciliations of the previous attempt; both permit a new
// attempt, exactly like Idle.
type State string

const (
	StateIdle              State = "IDLE"
	StatePendingOptimistic State = "PENDING_OPTIMISTIC"
	StateSettled           State = "SETTLED"
	StateRolledBack        State = "ROLLED_BACK"
)

// After this many consecutive Failed outcomes the view refetches the
// authoritative balance to recover from prolonged desync.
const failedResyncThreshold = 3

// Snapshot is what the rendering layer reads.
type Snapshot struct {
	DisplayedBalance int64
	IsPending        bool
}

// BalanceView keeps the displayed balance for one member. A redemption
// decrements the display immediately and reconciles with the executor's
// outcome when it arrives: Confirmed replaces the provisional value with the
// authoritative one, Rejected/Failed discards the provisional decrement.
//
// At most one redemption may be pending per view. A second attempt while one
// is outstanding is rejected with ErrRedemptionPending rather than queued;
// two concurrent provisional decrements against one displayed balance would
// double-count the pending amount.
type BalanceView struct {
	mu      sync.Mutex
	service port.Service
	logger  *zap.Logger

	userID       uint64
	confirmed    int64 // last authoritative balance
	provisional  int64 // displayed while a redemption is pending
	state        State
	failedStreak int
}

func NewBalanceView(ctx context.Context, service port.Service, userID uint64, logger *zap.Logger) (*BalanceView, error) {
	balance, err := service.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &BalanceView{
		service:   service,
		logger:    logger,
		userID:    userID,
		confirmed: balance,
		state:     StateIdle,
	}, nil
}

// State reports the current machine state.
func (v *BalanceView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Snapshot returns the balance to display and whether a redemption is
// pending. Never blocks on the executor.
func (v *BalanceView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == StatePendingOptimistic {
		return Snapshot{DisplayedBalance: v.provisional, IsPending: true}
	}
	return Snapshot{DisplayedBalance: v.confirmed, IsPending: false}
}

// Redeem applies the provisional decrement, runs the redemption through the
// executor, and reconciles the display with the outcome. The returned
// outcome is the executor's; the view's own guard failure is the only error
// this method produces on its own.
func (v *BalanceView) Redeem(ctx context.Context, product *domain.Product) (*domain.RedemptionOutcome, error) {
	v.mu.Lock()
	if v.state == StatePendingOptimistic {
		v.mu.Unlock()
		return nil, domain.ErrRedemptionPending
	}
	v.state = StatePendingOptimistic
	v.provisional = v.confirmed - product.PointsPrice
	v.mu.Unlock()

	outcome, err := v.service.InitiateRedemption(ctx, v.userID, product.ID)
	if err != nil {
		v.rollback(ctx, false)
		return nil, err
	}

	switch outcome.Status {
	case domain.RedemptionConfirmed:
		v.settle(outcome.NewBalance)
	case domain.RedemptionFailed:
		v.rollback(ctx, true)
	default:
		v.rollback(ctx, false)
	}

	return outcome, nil
}

// Refresh refetches the authoritative balance. No-op while a redemption is
// pending: the in-flight outcome will reconcile the display itself.
func (v *BalanceView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	if v.state == StatePendingOptimistic {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	balance, err := v.service.GetBalance(ctx, v.userID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StatePendingOptimistic {
		v.confirmed = balance
	}
	return nil
}

// settle replaces the provisional value with the authoritative balance. The
// two are equal in the common case; when a concurrent accrual landed in
// between, the authoritative value wins.
func (v *BalanceView) settle(newBalance int64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = StateSettled
	v.confirmed = newBalance
	v.failedStreak = 0
	v.logger.Debug("redemption settled",
		zap.Uint64("user", v.userID), zap.Int64("balance", v.confirmed))
}

// rollback reverts the display to the last confirmed balance. Failed
// outcomes count toward the resync threshold; rejections do not, because
// the confirmed value is already authoritative for them.
func (v *BalanceView) rollback(ctx context.Context, failed bool) {
	v.mu.Lock()
	v.state = StateRolledBack
	v.logger.Debug("redemption rolled back",
		zap.Uint64("user", v.userID), zap.Int64("balance", v.confirmed))

	resync := false
	if failed {
		v.failedStreak++
		if v.failedStreak >= failedResyncThreshold {
			v.failedStreak = 0
			resync = true
		}
	} else {
		v.failedStreak = 0
	}
	v.mu.Unlock()

	if resync {
		if err := v.Refresh(ctx); err != nil {
			v.logger.Error("balance resync", zap.Uint64("user", v.userID), zap.Error(err))
		}
	}
}
