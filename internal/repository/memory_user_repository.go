package repository

import (
	"context"
	"strings"
	"sync"
	"time"
	"verifly/internal/model"
	"verifly/internal/ports"
)

var _ ports.AccountDirectory = (*MemoryUserRepository)(nil)

// MemoryUserRepository справочник аккаунтов в памяти процесса, для тестов и локального запуска.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*model.Account
	byEmail map[string]int64
	now     func() time.Time
}

func NewMemoryUserRepository(now func() time.Time) *MemoryUserRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryUserRepository{
		byID:    make(map[int64]*model.Account),
		byEmail: make(map[string]int64),
		now:     now,
	}
}

func (repository *MemoryUserRepository) CreateAccount(ctx context.Context, email string, passwordHash string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := strings.ToLower(email)

	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.byEmail[key]; exists {
		return nil, ports.ErrEmailTaken
	}

	repository.nextID++
	now := repository.now().UTC()
	account := &model.Account{
		ID:           repository.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	repository.byID[account.ID] = account
	repository.byEmail[key] = account.ID

	copied := *account
	return &copied, nil
}

func (repository *MemoryUserRepository) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repository.mu.RLock()
	defer repository.mu.RUnlock()

	account, ok := repository.byID[id]
	if !ok {
		return nil, ports.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (repository *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repository.mu.RLock()
	id, ok := repository.byEmail[strings.ToLower(email)]
	repository.mu.RUnlock()
	if !ok {
		return nil, ports.ErrAccountNotFound
	}

	return repository.FindByID(ctx, id)
}

func (repository *MemoryUserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	account, ok := repository.byID[id]
	if !ok {
		return ports.ErrAccountNotFound
	}
	lastLogin := at
	account.LastLogin = &lastLogin
	return nil
}

// SetActive меняет флаг активности, в справочник это приходит извне (админка, модерация).
func (repository *MemoryUserRepository) SetActive(id int64, active bool) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	account, ok := repository.byID[id]
	if !ok {
		return ports.ErrAccountNotFound
	}
	account.IsActive = active
	account.UpdatedAt = repository.now().UTC()
	return nil
}

func (repository *MemoryUserRepository) Count() int {
	repository.mu.RLock()
	defer repository.mu.RUnlock()
	return len(repository.byID)
}
