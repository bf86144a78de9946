package service

import (
	"errors"
	"verifly/internal/ports"
)

var (
	ErrInvalidCredentials     = errors.New("неверный email или пароль")
	ErrEmailAlreadyRegistered = errors.New("email уже зарегистрирован")
	ErrInvalidRefreshToken    = errors.New("невалидный рефреш токен")
	ErrInvalidAccessToken     = errors.New("невалидный access токен")
	ErrAccountNotFound        = ports.ErrAccountNotFound
	ErrAccountInactive        = errors.New("аккаунт отключен")
	ErrInvalidEmail           = errors.New("невалидный email")
	ErrWeakPassword           = errors.New("недопустимая длина пароля")
	ErrRefreshTokenReused     = errors.New("рефреш токен уже был использован")
)
