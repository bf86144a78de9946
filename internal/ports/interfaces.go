package ports

import (
	"context"
	"errors"
	"time"
	"verifly/internal/model"
	"verifly/internal/security"
)

var (
	ErrAccountNotFound = errors.New("аккаунт не найден")
	ErrEmailTaken      = errors.New("email уже занят")
)

// AccountDirectory внешний справочник аккаунтов. Уникальность email обеспечивает он,
// а не вызывающий код.
type AccountDirectory interface {
	CreateAccount(ctx context.Context, email string, passwordHash string) (*model.Account, error)
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	RecordLogin(ctx context.Context, id int64, at time.Time) error
}

type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext string, digest string) (bool, error)
}

type TokenDecoder interface {
	Decode(tokenString string, expected security.Purpose) (*security.Claims, error)
}

type SessionIssuer interface {
	Issue(account *model.Account) (*security.Session, error)
}

// RefreshTokenRepository помечает refresh токены использованными.
// MarkUsed возвращает false, если токен уже был использован раньше.
type RefreshTokenRepository interface {
	MarkUsed(ctx context.Context, tokenID string, expireAt time.Time) (bool, error)
}

type SecurityEvent struct {
	Event     string    `json:"event"`
	AccountID string    `json:"account_id"`
	TokenID   string    `json:"token_id"`
	Timestamp time.Time `json:"timestamp"`
}

type Notifier interface {
	Notify(ctx context.Context, event SecurityEvent) error
}
