package domain

import (
	"time"
)

// RedemptionRequest is a transient value object for a single redemption
// attempt. It is evaluated against the account balance at execution time,
// not at creation time.
type RedemptionRequest struct {
	UserID      uint64
	ProductID   uint64
	PointsPrice int64
	RequestedAt time.Time
}

type RedemptionStatus string

const (
	RedemptionConfirmed RedemptionStatus = "CONFIRMED"
	RedemptionRejected  RedemptionStatus = "REJECTED"
	RedemptionFailed    RedemptionStatus = "FAILED"
)

// RedemptionOutcome is the total result of one redemption attempt.
// Confirmed carries the authoritative new balance. Rejected carries a
// business reason (ErrInsufficientPoints, ErrInvalidRequest). Failed carries
// an infrastructure reason (ErrStoreUnavailable).
type RedemptionOutcome struct {
	Status     RedemptionStatus
	NewBalance int64
	Reason     error
}

func Confirmed(newBalance int64) *RedemptionOutcome {
	return &RedemptionOutcome{Status: RedemptionConfirmed, NewBalance: newBalance}
}

func Rejected(reason error) *RedemptionOutcome {
	return &RedemptionOutcome{Status: RedemptionRejected, Reason: reason}
}

func Failed(reason error) *RedemptionOutcome {
	return &RedemptionOutcome{Status: RedemptionFailed, Reason: reason}
}

// DebitResult is the total result of an atomic conditional debit.
// When Applied, Balance is the new balance; otherwise Balance is the
// unchanged current balance at the moment the store evaluated the debit.
type DebitResult struct {
	Applied bool
	Balance int64
}

// Redemption is one settled ledger entry.
type Redemption struct {
	ID          uint64
	UserID      uint64
	ProductID   uint64
	PointsSpent int64
	ProcessedAt time.Time
}
