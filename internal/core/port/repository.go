package port

import (
	"context"

	"github.com/membora/pointsledger/internal/core/domain"
)

// BalanceStore is the single source of truth for point balances. Every
// mutation funnels through DebitIfSufficient or Credit, both atomic per
// account; no other write path exists.
//
//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type BalanceStore interface {
	// User
	CreateAccount(ctx context.Context, user *domain.User) (*domain.Account, error)
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)

	// Balance
	ReadBalance(ctx context.Context, userID uint64) (int64, error)

	// DebitIfSufficient atomically checks balance >= amount and decrements
	// by amount only if so. The result is total: Applied reports whether the
	// debit took effect, Balance is the new (applied) or unchanged (not
	// applied) value. A returned error means the store could not evaluate
	// the debit at all; nothing was mutated.
	DebitIfSufficient(ctx context.Context, userID uint64, amount int64, productID uint64) (*domain.DebitResult, error)

	// Credit is the accrual path. It shares the store's atomic primitive so
	// a concurrent credit and debit serialize in some order, never interleave.
	Credit(ctx context.Context, userID uint64, amount int64) (int64, error)

	ListRedemptionsByUser(ctx context.Context, userID uint64) ([]*domain.Redemption, error)
}
