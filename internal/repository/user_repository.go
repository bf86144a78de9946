package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/lib/pq"
	"time"
	"verifly/internal"
	"verifly/internal/model"
	"verifly/internal/ports"
)

const uniqueViolationCode = "23505"

var _ ports.AccountDirectory = (*UserRepository)(nil)

// UserRepository справочник аккаунтов в Postgres.
type UserRepository struct {
	*internal.Database
}

func NewUserRepository(database *internal.Database) *UserRepository {
	return &UserRepository{database}
}

const userColumns = `id, email, password_hash, is_active, is_verified, created_at, updated_at, last_login`

func (repository *UserRepository) CreateAccount(ctx context.Context, email string, passwordHash string) (*model.Account, error) {
	query := `INSERT INTO users (email, password_hash)
			  VALUES ($1, $2)
			  RETURNING ` + userColumns

	var account model.Account
	err := repository.DB.GetContext(ctx, &account, query, email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ports.ErrEmailTaken
		}
		return nil, fmt.Errorf("ошибка вставки пользователя: %w", err)
	}

	return &account, nil
}

func (repository *UserRepository) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return repository.findOne(ctx, query, id)
}

func (repository *UserRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return repository.findOne(ctx, query, email)
}

func (repository *UserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE users SET last_login = $2 WHERE id = $1`

	result, err := repository.DB.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("не удалось обновить время входа: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("не удалось проверить, обновлен ли пользователь: %w", err)
	}
	if rowsAffected == 0 {
		return ports.ErrAccountNotFound
	}

	return nil
}

func (repository *UserRepository) findOne(ctx context.Context, query string, arg any) (*model.Account, error) {
	var account model.Account

	err := repository.DB.GetContext(ctx, &account, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrAccountNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}
