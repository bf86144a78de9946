package service

import (
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"verifly/internal/metrics"
	"verifly/internal/model"
	"verifly/internal/notifier"
	"verifly/internal/ports"
	"verifly/internal/security"
)

const (
	DefaultMinPasswordLength = 8
	// bcrypt не учитывает байты после 72-го
	maxPasswordLength = 72

	notifyTimeout = 10 * time.Second
)

// AuthenticationService регистрация, вход, обновление и проверка сессий.
// Состояния между запросами не хранит, кроме необязательного RefreshTokens.
type AuthenticationService struct {
	Directory ports.AccountDirectory
	Hasher    ports.PasswordHasher
	Tokens    ports.TokenDecoder
	Issuer    ports.SessionIssuer

	// RefreshTokens включает обнаружение повторного использования refresh токенов. nil - выключено.
	RefreshTokens ports.RefreshTokenRepository
	Notifier      ports.Notifier

	Metrics           *metrics.AuthMetrics
	Logger            *zap.Logger
	Now               func() time.Time
	MinPasswordLength int
}

// AuthResult профиль и новая пара токенов
type AuthResult struct {
	Profile model.Profile
	Session *security.Session
}

func NewAuthenticationService(service AuthenticationService) (*AuthenticationService, error) {
	if service.Directory == nil || service.Hasher == nil || service.Tokens == nil || service.Issuer == nil {
		return nil, errors.New("не заданы обязательные зависимости сервиса аутентификации")
	}
	if service.Notifier == nil {
		service.Notifier = notifier.Noop{}
	}
	if service.Logger == nil {
		service.Logger = zap.NewNop()
	}
	if service.Now == nil {
		service.Now = time.Now
	}
	if service.MinPasswordLength <= 0 {
		service.MinPasswordLength = DefaultMinPasswordLength
	}
	return &service, nil
}

func (service *AuthenticationService) Register(ctx context.Context, email string, password string) (*AuthResult, error) {
	result, err := service.register(ctx, email, password)
	service.Metrics.ObserveOperation("register", err)
	return result, err
}

func (service *AuthenticationService) register(ctx context.Context, email string, password string) (*AuthResult, error) {
	email, err := service.validateCredentials(email, password)
	if err != nil {
		return nil, err
	}

	// предварительная проверка, источник истины - уникальный индекс справочника
	_, err = service.Directory.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailAlreadyRegistered
	}
	if !errors.Is(err, ports.ErrAccountNotFound) {
		return nil, fmt.Errorf("не удалось проверить email: %w", err)
	}

	passwordHash, err := service.hash(ctx, password)
	if err != nil {
		return nil, err
	}

	account, err := service.Directory.CreateAccount(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, ports.ErrEmailTaken) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("не удалось создать аккаунт: %w", err)
	}

	session, err := service.Issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	service.Logger.Info("зарегистрирован новый аккаунт", zap.Int64("account_id", account.ID))
	return &AuthResult{Profile: account.Profile(), Session: session}, nil
}

func (service *AuthenticationService) Login(ctx context.Context, email string, password string) (*AuthResult, error) {
	result, err := service.login(ctx, email, password)
	service.Metrics.ObserveOperation("login", err)
	return result, err
}

func (service *AuthenticationService) login(ctx context.Context, email string, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	account, err := service.Directory.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ports.ErrAccountNotFound) {
			return nil, fmt.Errorf("ошибка поиска аккаунта: %w", err)
		}
		// проверка с пустым хэшем занимает столько же времени, сколько настоящая
		if _, err := service.verify(ctx, password, ""); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	ok, err := service.verify(ctx, password, account.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	now := service.Now().UTC()
	if err := service.Directory.RecordLogin(ctx, account.ID, now); err != nil {
		service.Logger.Warn("не удалось сохранить время входа", zap.Int64("account_id", account.ID), zap.Error(err))
	} else {
		account.LastLogin = &now
	}

	session, err := service.Issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	return &AuthResult{Profile: account.Profile(), Session: session}, nil
}

// Refresh выпускает новую пару токенов по refresh токену. Старый refresh токен
// отзывается, только если включен RefreshTokens.
func (service *AuthenticationService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	result, err := service.refresh(ctx, refreshToken)
	service.Metrics.ObserveOperation("refresh", err)
	return result, err
}

func (service *AuthenticationService) refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := service.decode(refreshToken, security.PurposeRefresh, ErrInvalidRefreshToken)
	if err != nil {
		return nil, err
	}

	account, err := service.resolveAccount(ctx, claims, ErrInvalidRefreshToken)
	if err != nil {
		return nil, err
	}

	if service.RefreshTokens != nil {
		firstUse, err := service.RefreshTokens.MarkUsed(ctx, claims.ID, claims.ExpiresAt.Time)
		if err != nil {
			return nil, fmt.Errorf("не удалось проверить рефреш токен: %w", err)
		}
		if !firstUse {
			service.Logger.Warn("повторное использование рефреш токена",
				zap.Int64("account_id", account.ID), zap.String("token_id", claims.ID))
			service.notify(ports.SecurityEvent{
				Event:     notifier.EventRefreshTokenReuse,
				AccountID: claims.Subject,
				TokenID:   claims.ID,
				Timestamp: service.Now().UTC(),
			})
			return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, ErrRefreshTokenReused)
		}
	}

	session, err := service.Issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	return &AuthResult{Profile: account.Profile(), Session: session}, nil
}

// WhoAmI возвращает профиль владельца access токена.
func (service *AuthenticationService) WhoAmI(ctx context.Context, accessToken string) (*model.Profile, error) {
	profile, err := service.whoAmI(ctx, accessToken)
	service.Metrics.ObserveOperation("whoami", err)
	return profile, err
}

func (service *AuthenticationService) whoAmI(ctx context.Context, accessToken string) (*model.Profile, error) {
	claims, err := service.decode(accessToken, security.PurposeAccess, ErrInvalidAccessToken)
	if err != nil {
		return nil, err
	}

	account, err := service.resolveAccount(ctx, claims, ErrInvalidAccessToken)
	if err != nil {
		return nil, err
	}

	profile := account.Profile()
	return &profile, nil
}

// Logout на сервере ничего не хранит, cookie очищает транспорт. Если включен
// RefreshTokens, refresh токен из запроса помечается использованным.
func (service *AuthenticationService) Logout(ctx context.Context, refreshToken string) {
	service.Metrics.ObserveOperation("logout", nil)

	if service.RefreshTokens == nil || refreshToken == "" {
		return
	}

	claims, err := service.Tokens.Decode(refreshToken, security.PurposeRefresh)
	if err != nil {
		return
	}

	if _, err := service.RefreshTokens.MarkUsed(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		service.Logger.Warn("не удалось отозвать рефреш токен при выходе", zap.String("token_id", claims.ID), zap.Error(err))
	}
}

func (service *AuthenticationService) decode(token string, purpose security.Purpose, invalid error) (*security.Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: пустой токен", invalid)
	}

	claims, err := service.Tokens.Decode(token, purpose)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", invalid, err)
	}

	return claims, nil
}

func (service *AuthenticationService) resolveAccount(ctx context.Context, claims *security.Claims, invalid error) (*model.Account, error) {
	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return nil, fmt.Errorf("%w: неверный sub %q", invalid, claims.Subject)
	}

	account, err := service.Directory.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ports.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("ошибка поиска аккаунта: %w", err)
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	return account, nil
}

func (service *AuthenticationService) hash(ctx context.Context, password string) (string, error) {
	started := time.Now()
	defer service.Metrics.ObserveHash("hash", started)

	passwordHash, err := service.Hasher.Hash(ctx, password)
	if err != nil {
		return "", fmt.Errorf("ошибка хэширования пароля: %w", err)
	}
	return passwordHash, nil
}

func (service *AuthenticationService) verify(ctx context.Context, password string, digest string) (bool, error) {
	started := time.Now()
	defer service.Metrics.ObserveHash("verify", started)

	ok, err := service.Hasher.Verify(ctx, password, digest)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки пароля: %w", err)
	}
	return ok, nil
}

func (service *AuthenticationService) notify(event ports.SecurityEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := service.Notifier.Notify(ctx, event); err != nil {
			service.Logger.Warn("ошибка отправки события безопасности", zap.String("event", event.Event), zap.Error(err))
		}
	}()
}

func (service *AuthenticationService) validateCredentials(email string, password string) (string, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return "", ErrInvalidEmail
	}
	if len(password) < service.MinPasswordLength || len(password) > maxPasswordLength {
		return "", fmt.Errorf("%w: от %d до %d байт", ErrWeakPassword, service.MinPasswordLength, maxPasswordLength)
	}
	return email, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail адрес без имени, домен с точкой внутри
func validEmail(email string) bool {
	address, err := mail.ParseAddress(email)
	if err != nil || address.Address != email {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1 && !strings.HasPrefix(domain, ".")
}
