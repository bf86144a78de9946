package repository

import (
	"context"
	"fmt"
	"github.com/redis/go-redis/v9"
	"sync"
	"time"
	"verifly/internal/ports"
)

const usedRefreshTokenPrefix = "refresh:used:"

// минимальный срок хранения отметки, если токен уже почти истек
const minUsedMarkTTL = time.Second

var (
	_ ports.RefreshTokenRepository = (*RedisRefreshTokenRepository)(nil)
	_ ports.RefreshTokenRepository = (*MemoryRefreshTokenRepository)(nil)
)

// RedisRefreshTokenRepository хранит идентификаторы (jti) использованных refresh токенов
// до истечения срока их действия.
type RedisRefreshTokenRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRefreshTokenRepository(client *redis.Client, now func() time.Time) *RedisRefreshTokenRepository {
	if now == nil {
		now = time.Now
	}
	return &RedisRefreshTokenRepository{client: client, now: now}
}

func (repository *RedisRefreshTokenRepository) MarkUsed(ctx context.Context, tokenID string, expireAt time.Time) (bool, error) {
	ttl := expireAt.Sub(repository.now())
	if ttl < minUsedMarkTTL {
		ttl = minUsedMarkTTL
	}

	firstUse, err := repository.client.SetNX(ctx, usedRefreshTokenPrefix+tokenID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("не удалось пометить рефреш токен использованным: %w", err)
	}

	return firstUse, nil
}

// раз в usedMarkSweepInterval из памяти удаляются отметки истекших токенов
const usedMarkSweepInterval = time.Minute

// MemoryRefreshTokenRepository то же самое в памяти одного процесса.
type MemoryRefreshTokenRepository struct {
	mu        sync.Mutex
	used      map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryRefreshTokenRepository(now func() time.Time) *MemoryRefreshTokenRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRefreshTokenRepository{used: make(map[string]time.Time), lastSweep: now(), now: now}
}

func (repository *MemoryRefreshTokenRepository) MarkUsed(ctx context.Context, tokenID string, expireAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	now := repository.now()
	if now.Sub(repository.lastSweep) >= usedMarkSweepInterval {
		repository.sweep(now)
	}

	if until, used := repository.used[tokenID]; used && until.After(now) {
		return false, nil
	}
	if expireAt.Sub(now) < minUsedMarkTTL {
		expireAt = now.Add(minUsedMarkTTL)
	}
	repository.used[tokenID] = expireAt
	return true, nil
}

func (repository *MemoryRefreshTokenRepository) sweep(now time.Time) {
	for id, until := range repository.used {
		if !until.After(now) {
			delete(repository.used, id)
		}
	}
	repository.lastSweep = now
}
