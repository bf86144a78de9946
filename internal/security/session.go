package security

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"verifly/internal/model"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type SessionConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SecureCookies bool
	CookiePath    string
	CookieDomain  string
}

// Session пара токенов, выданная клиенту. На сервере не хранится.
type Session struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

type SessionIssuer struct {
	codec  *TokenCodec
	config SessionConfig
}

func NewSessionIssuer(codec *TokenCodec, config SessionConfig) (*SessionIssuer, error) {
	if codec == nil {
		return nil, errors.New("не задан кодек токенов")
	}
	if config.AccessTTL == 0 {
		config.AccessTTL = DefaultAccessTTL
	}
	if config.RefreshTTL == 0 {
		config.RefreshTTL = DefaultRefreshTTL
	}
	if config.AccessTTL < 0 || config.RefreshTTL <= config.AccessTTL {
		return nil, fmt.Errorf("access токен (%s) должен жить меньше refresh токена (%s)", config.AccessTTL, config.RefreshTTL)
	}
	if config.CookiePath == "" {
		config.CookiePath = "/"
	}

	return &SessionIssuer{codec: codec, config: config}, nil
}

// Issue выпускает новую пару токенов для аккаунта. Каждый вызов дает новые токены.
func (issuer *SessionIssuer) Issue(account *model.Account) (*Session, error) {
	subject := strconv.FormatInt(account.ID, 10)

	accessToken, err := issuer.codec.Encode(subject, PurposeAccess, issuer.config.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации access токена: %w", err)
	}

	refreshToken, err := issuer.codec.Encode(subject, PurposeRefresh, issuer.config.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации рефреш токена: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    issuer.config.AccessTTL,
		RefreshTTL:   issuer.config.RefreshTTL,
	}, nil
}

// Cookies возвращает cookie, в которых сессия уходит клиенту.
func (issuer *SessionIssuer) Cookies(session *Session) []*http.Cookie {
	return []*http.Cookie{
		issuer.cookie(AccessTokenCookie, session.AccessToken, int(session.AccessTTL/time.Second)),
		issuer.cookie(RefreshTokenCookie, session.RefreshToken, int(session.RefreshTTL/time.Second)),
	}
}

// ClearedCookies возвращает cookie, которые браузер должен сразу удалить.
func (issuer *SessionIssuer) ClearedCookies() []*http.Cookie {
	return []*http.Cookie{
		issuer.cookie(AccessTokenCookie, "", -1),
		issuer.cookie(RefreshTokenCookie, "", -1),
	}
}

func (issuer *SessionIssuer) cookie(name string, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     issuer.config.CookiePath,
		Domain:   issuer.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   issuer.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
