package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/membora/pointsledger/internal/adapter/storage/memory"
	"github.com/membora/pointsledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, store *memory.Store, balance int64) uint64 {
	t.Helper()

	acc, err := store.CreateAccount(context.Background(), &domain.User{Login: "test", Password: "secret"})
	require.NoError(t, err)

	if balance > 0 {
		_, err = store.Credit(context.Background(), acc.UserID, balance)
		require.NoError(t, err)
	}
	return acc.UserID
}

func TestStore_DebitIfSufficient(t *testing.T) {
	store := memory.NewStore()
	userID := newAccount(t, store, 100)

	res, err := store.DebitIfSufficient(context.Background(), userID, 60, 10)
	assert.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, int64(40), res.Balance)

	// second debit of 60 must not apply and must not mutate
	res, err = store.DebitIfSufficient(context.Background(), userID, 60, 11)
	assert.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, int64(40), res.Balance)

	balance, err := store.ReadBalance(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}

func TestStore_DebitUnknownAccount(t *testing.T) {
	store := memory.NewStore()

	_, err := store.DebitIfSufficient(context.Background(), 42, 60, 10)
	assert.Equal(t, domain.ErrDataNotFound, err)
}

func TestStore_TwoConcurrentDebits(t *testing.T) {
	store := memory.NewStore()
	userID := newAccount(t, store, 100)

	results := make([]*domain.DebitResult, 2)
	wg := sync.WaitGroup{}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := store.DebitIfSufficient(context.Background(), userID, 60, uint64(i))
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	// exactly one of the two 60-point debits may win against 100
	applied := 0
	for _, res := range results {
		if res.Applied {
			applied++
			assert.Equal(t, int64(40), res.Balance)
		} else {
			assert.Equal(t, int64(40), res.Balance)
		}
	}
	assert.Equal(t, 1, applied)

	balance, err := store.ReadBalance(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}

func TestStore_NoDoubleSpendUnderLoad(t *testing.T) {
	const (
		initial  = int64(95)
		price    = int64(10)
		attempts = 50
	)

	store := memory.NewStore()
	userID := newAccount(t, store, initial)

	var mu sync.Mutex
	applied := 0

	wg := sync.WaitGroup{}
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := store.DebitIfSufficient(context.Background(), userID, price, uint64(i))
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, res.Balance, int64(0))
			if res.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// floor(95/10) attempts succeed, leaving 5
	assert.Equal(t, int(initial/price), applied)

	balance, err := store.ReadBalance(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, initial-int64(applied)*price, balance)
}

func TestStore_ConcurrentCreditAndDebit(t *testing.T) {
	const rounds = 100

	store := memory.NewStore()
	userID := newAccount(t, store, 1000)

	var mu sync.Mutex
	var spent int64

	wg := sync.WaitGroup{}
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := store.Credit(context.Background(), userID, 5)
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			res, err := store.DebitIfSufficient(context.Background(), userID, 7, uint64(i))
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, res.Balance, int64(0))
			if res.Applied {
				mu.Lock()
				spent += 7
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// both sides are atomic, so the net balance reflects every credit and
	// every applied debit exactly once
	balance, err := store.ReadBalance(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000)+rounds*5-spent, balance)
}

func TestStore_CreateAccountDuplicateLogin(t *testing.T) {
	store := memory.NewStore()

	_, err := store.CreateAccount(context.Background(), &domain.User{Login: "test"})
	assert.NoError(t, err)

	_, err = store.CreateAccount(context.Background(), &domain.User{Login: "test"})
	assert.Equal(t, domain.ErrConflictingData, err)
}

func TestStore_RedemptionLedger(t *testing.T) {
	store := memory.NewStore()
	userID := newAccount(t, store, 100)

	_, err := store.DebitIfSufficient(context.Background(), userID, 60, 10)
	assert.NoError(t, err)

	// rejected attempts leave no ledger entry
	_, err = store.DebitIfSufficient(context.Background(), userID, 60, 11)
	assert.NoError(t, err)

	list, err := store.ListRedemptionsByUser(context.Background(), userID)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, uint64(10), list[0].ProductID)
	assert.Equal(t, int64(60), list[0].PointsSpent)
}
