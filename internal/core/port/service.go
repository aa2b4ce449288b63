package port

import (
	"context"

	"github.com/membora/pointsledger/internal/core/domain"
)

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock
type Service interface {
	RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error)
	LoginUser(ctx context.Context, login string, password string) (string, error)

	GetBalance(ctx context.Context, userID uint64) (int64, error)

	// InitiateRedemption runs one redemption attempt to a total outcome.
	// Business rejections and infrastructure failures are reported inside
	// the outcome; the error return is reserved for malformed calls.
	InitiateRedemption(ctx context.Context, userID uint64, productID uint64) (*domain.RedemptionOutcome, error)

	Credit(ctx context.Context, userID uint64, amount int64) (int64, error)
	GetRedemptionsByUser(ctx context.Context, userID uint64) ([]*domain.Redemption, error)
}
