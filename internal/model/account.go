package model

import "time"

// Account запись пользователя в справочнике. PasswordHash никогда не отдается наружу.
type Account struct {
	ID           int64      `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	IsActive     bool       `db:"is_active"`
	IsVerified   bool       `db:"is_verified"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLogin    *time.Time `db:"last_login"`
}

// Profile публичное представление аккаунта
// swagger:model
type Profile struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastLogin  *time.Time `json:"last_login"`
}

func (account *Account) Profile() Profile {
	return Profile{
		ID:         account.ID,
		Email:      account.Email,
		IsActive:   account.IsActive,
		IsVerified: account.IsVerified,
		CreatedAt:  account.CreatedAt,
		UpdatedAt:  account.UpdatedAt,
		LastLogin:  account.LastLogin,
	}
}
