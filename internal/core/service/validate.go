package service

import (
	"github.com/membora/pointsledger/internal/core/domain"
)

// ValidateRequest checks a redemption request against the best-known balance.
// Pure function: no I/O, deterministic given its inputs. A passing result is
// only a fast-path hint; affordability is re-evaluated atomically by the
// store at debit time.
func ValidateRequest(req domain.RedemptionRequest, currentBalance int64) error {
	if err := validateShape(req); err != nil {
		return err
	}
	if currentBalance < req.PointsPrice {
		return domain.ErrInsufficientPoints
	}
	return nil
}

// validateShape rejects requests that are malformed regardless of balance.
func validateShape(req domain.RedemptionRequest) error {
	if req.UserID == 0 || req.ProductID == 0 {
		return domain.ErrInvalidRequest
	}
	if req.PointsPrice <= 0 {
		return domain.ErrInvalidRequest
	}
	return nil
}
