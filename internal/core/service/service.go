package service

import (
	"context"
	"errors"
	"time"

	"github.com/membora/pointsledger/internal/core/domain"
	"github.com/membora/pointsledger/internal/core/port"
	"github.com/membora/pointsledger/internal/core/utils"
	"go.uber.org/zap"
)

const (
	// Bounded retries for the atomic debit on store failure. The debit is a
	// conditional check-and-decrement, so retrying an attempt that applied
	// nothing is a no-op.
	debitAttempts = 3
	debitBackoff  = 100 * time.Millisecond
)

type Service struct {
	store        port.BalanceStore
	catalog      port.CatalogClient
	tokenService port.TokenService
	logger       *zap.Logger
}

func NewService(store port.BalanceStore, catalog port.CatalogClient,
	tokenService port.TokenService, logger *zap.Logger) (*Service, error) {
	return &Service{
		store:        store,
		catalog:      catalog,
		tokenService: tokenService,
		logger:       logger,
	}, nil
}

func (s *Service) RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	exUser, err := s.store.GetUserByLogin(ctx, user.Login)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		s.logger.Error("Get user", zap.Error(err))
		return nil, domain.ErrInternal
	}

	if exUser != nil {
		return nil, domain.ErrConflictingData
	}

	account, err := s.store.CreateAccount(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			return nil, domain.ErrConflictingData
		}
		s.logger.Error("Create account", zap.Error(err))
		return nil, domain.ErrInternal
	}

	user.ID = account.UserID
	return user, nil
}

func (s *Service) LoginUser(ctx context.Context, login string, password string) (string, error) {
	user, err := s.store.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", domain.ErrInternal
	}

	err = utils.ComparePassword(password, user.Password)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(user)
	if err != nil {
		s.logger.Error("Create token", zap.Error(err))
		return "", domain.ErrTokenCreation
	}

	return token, nil
}

func (s *Service) GetBalance(ctx context.Context, userID uint64) (int64, error) {
	balance, err := s.store.ReadBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return 0, domain.ErrDataNotFound
		}
		s.logger.Error("Read balance", zap.Error(err))
		return 0, domain.ErrInternal
	}
	return balance, nil
}

// InitiateRedemption runs one redemption attempt end-to-end. The outcome is
// total: either the balance decreased by exactly the product's point price
// and the outcome is Confirmed, or it did not decrease and the outcome is
// Rejected or Failed. A lost race is reported as InsufficientPoints, since
// at commit time the two are the same fact.
func (s *Service) InitiateRedemption(ctx context.Context, userID uint64, productID uint64) (*domain.RedemptionOutcome, error) {
	req := domain.RedemptionRequest{
		UserID:      userID,
		ProductID:   productID,
		RequestedAt: time.Now(),
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return domain.Rejected(domain.ErrInvalidRequest), nil
		}
		s.logger.Error("Catalog lookup", zap.Uint64("product", productID), zap.Error(err))
		return domain.Failed(domain.ErrStoreUnavailable), nil
	}
	if !product.Available {
		return domain.Rejected(domain.ErrInvalidRequest), nil
	}
	req.PointsPrice = product.PointsPrice

	if err := validateShape(req); err != nil {
		return domain.Rejected(err), nil
	}

	// Fast-path rejection against the best-known balance. Saves the debit
	// round trip for obviously unaffordable requests; the conditional debit
	// below re-evaluates affordability atomically, so a stale read here
	// cannot corrupt anything.
	balance, err := s.store.ReadBalance(ctx, userID)
	switch {
	case err == nil:
		if verr := ValidateRequest(req, balance); verr != nil {
			s.logger.Debug("redemption rejected on fast path",
				zap.Uint64("user", userID), zap.Int64("price", req.PointsPrice))
			return domain.Rejected(verr), nil
		}
	case errors.Is(err, domain.ErrDataNotFound):
		return domain.Rejected(domain.ErrInvalidRequest), nil
	default:
		// Balance unknown; let the atomic debit decide.
	}

	var lastErr error
	for attempt := 1; attempt <= debitAttempts; attempt++ {
		res, err := s.store.DebitIfSufficient(ctx, userID, req.PointsPrice, productID)
		if err == nil {
			if !res.Applied {
				s.logger.Debug("redemption rejected by store",
					zap.Uint64("user", userID),
					zap.Int64("price", req.PointsPrice),
					zap.Int64("balance", res.Balance))
				return domain.Rejected(domain.ErrInsufficientPoints), nil
			}
			return domain.Confirmed(res.Balance), nil
		}
		if errors.Is(err, domain.ErrDataNotFound) {
			return domain.Rejected(domain.ErrInvalidRequest), nil
		}

		lastErr = err
		if attempt < debitAttempts {
			if serr := sleepCtx(ctx, debitBackoff<<(attempt-1)); serr != nil {
				break
			}
		}
	}

	s.logger.Error("redemption store unavailable",
		zap.Uint64("user", userID),
		zap.Uint64("product", productID),
		zap.Error(lastErr))
	return domain.Failed(domain.ErrStoreUnavailable), nil
}

func (s *Service) Credit(ctx context.Context, userID uint64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidRequest
	}

	balance, err := s.store.Credit(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return 0, domain.ErrDataNotFound
		}
		s.logger.Error("Credit balance", zap.Error(err))
		return 0, domain.ErrInternal
	}
	return balance, nil
}

func (s *Service) GetRedemptionsByUser(ctx context.Context, userID uint64) ([]*domain.Redemption, error) {
	list, err := s.store.ListRedemptionsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("List redemptions", zap.Error(err))
		return nil, domain.ErrInternal
	}
	return list, nil
}

// sleepCtx waits for the backoff duration or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
