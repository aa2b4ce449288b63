package memory

import (
	"context"
	"sync"
	"time"

	"github.com/membora/pointsledger/internal/core/domain"
)

type account struct {
	userID   uint64
	login    string
	password string
	balance  int64
}

// Store is an in-memory balance store for development mode and tests. A
// single mutex serializes every mutation, so debits on one account are
// linearizable: the sufficiency check and the decrement happen inside one
// critical section with no observable intermediate state.
type Store struct {
	mu               sync.Mutex
	nextUserID       uint64
	nextRedemptionID uint64
	accounts         map[uint64]*account
	logins           map[string]uint64
	redemptions      map[uint64][]*domain.Redemption
}

func NewStore() *Store {
	return &Store{
		accounts:    make(map[uint64]*account),
		logins:      make(map[string]uint64),
		redemptions: make(map[uint64][]*domain.Redemption),
	}
}

func (s *Store) CreateAccount(_ context.Context, user *domain.User) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logins[user.Login]; ok {
		return nil, domain.ErrConflictingData
	}

	s.nextUserID++
	acc := &account{
		userID:   s.nextUserID,
		login:    user.Login,
		password: user.Password,
	}
	s.accounts[acc.userID] = acc
	s.logins[acc.login] = acc.userID

	return &domain.Account{
		UserID:        acc.userID,
		Login:         acc.login,
		Password:      acc.password,
		PointsBalance: acc.balance,
	}, nil
}

func (s *Store) GetUserByLogin(_ context.Context, login string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.logins[login]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	acc := s.accounts[userID]

	return &domain.User{ID: acc.userID, Login: acc.login, Password: acc.password}, nil
}

func (s *Store) ReadBalance(_ context.Context, userID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return 0, domain.ErrDataNotFound
	}
	return acc.balance, nil
}

func (s *Store) DebitIfSufficient(_ context.Context, userID uint64, amount int64, productID uint64) (*domain.DebitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}

	if acc.balance < amount {
		return &domain.DebitResult{Applied: false, Balance: acc.balance}, nil
	}

	acc.balance -= amount

	s.nextRedemptionID++
	s.redemptions[userID] = append(s.redemptions[userID], &domain.Redemption{
		ID:          s.nextRedemptionID,
		UserID:      userID,
		ProductID:   productID,
		PointsSpent: amount,
		ProcessedAt: time.Now(),
	})

	return &domain.DebitResult{Applied: true, Balance: acc.balance}, nil
}

func (s *Store) Credit(_ context.Context, userID uint64, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return 0, domain.ErrDataNotFound
	}

	acc.balance += amount
	return acc.balance, nil
}

func (s *Store) ListRedemptionsByUser(_ context.Context, userID uint64) ([]*domain.Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]*domain.Redemption, len(s.redemptions[userID]))
	copy(list, s.redemptions[userID])
	return list, nil
}
