package repository

import (
	"context"
	"sync"
	"testing"
	"time"
	"verifly/internal/ports"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository(nil)

	account, err := repo.CreateAccount(ctx, "a@x.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.ID)
	assert.True(t, account.IsActive)
	assert.False(t, account.IsVerified)
	assert.Nil(t, account.LastLogin)

	byID, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, 100)
	assert.ErrorIs(t, err, ports.ErrAccountNotFound)
	_, err = repo.FindByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, ports.ErrAccountNotFound)
}

func TestMemoryUserRepository_EmailUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository(nil)

	_, err := repo.CreateAccount(ctx, "a@x.com", "hash")
	require.NoError(t, err)

	_, err = repo.CreateAccount(ctx, "A@X.COM", "hash")
	assert.ErrorIs(t, err, ports.ErrEmailTaken)
	assert.Equal(t, 1, repo.Count())
}

func TestMemoryUserRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository(nil)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		taken     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateAccount(ctx, "race@x.com", "hash")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case err == ports.ErrEmailTaken:
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, taken)
	assert.Equal(t, 1, repo.Count())
}

func TestMemoryUserRepository_RecordLoginAndSetActive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository(nil)

	account, err := repo.CreateAccount(ctx, "a@x.com", "hash")
	require.NoError(t, err)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordLogin(ctx, account.ID, at))
	require.NoError(t, repo.SetActive(account.ID, false))

	stored, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.Equal(t, at, *stored.LastLogin)
	assert.False(t, stored.IsActive)

	assert.ErrorIs(t, repo.RecordLogin(ctx, 100, at), ports.ErrAccountNotFound)
	assert.ErrorIs(t, repo.SetActive(100, true), ports.ErrAccountNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(assert.AnError))
}
