package handler

import (
	"context"
	"errors"
	"go.uber.org/zap"
	"net/http"
	"time"
	"verifly/internal/model"
	"verifly/internal/security"
	"verifly/internal/service"
)

const DefaultRequestTimeout = 3 * time.Second

type profileContextKey struct{}

// CookieIssuer переносит сессию в cookie и очищает их при выходе
type CookieIssuer interface {
	Cookies(session *security.Session) []*http.Cookie
	ClearedCookies() []*http.Cookie
}

type AuthenticationHandler struct {
	service        *service.AuthenticationService
	cookies        CookieIssuer
	logger         *zap.Logger
	requestTimeout time.Duration
}

func NewAuthenticationHandler(authenticationService *service.AuthenticationService, cookies CookieIssuer, logger *zap.Logger, requestTimeout time.Duration) *AuthenticationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &AuthenticationHandler{
		service:        authenticationService,
		cookies:        cookies,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// Register создает аккаунт и сразу открывает сессию
// @Summary Регистрация
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.Credentials true "email и пароль"
// @Success 200 {object} model.TokenResponse
// @Failure 400 {object} model.ErrorResponse "невалидные данные или email уже зарегистрирован"
// @Router /auth/register [post]
func (handler *AuthenticationHandler) Register(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), handler.requestTimeout)
	defer cancel()

	credentials, ok := handler.decodeCredentials(writer, request)
	if !ok {
		return
	}

	result, err := handler.service.Register(ctx, credentials.Email, credentials.Password)
	if err != nil {
		handler.writeServiceError(writer, request, err)
		return
	}

	handler.writeSession(writer, result)
}

// Login проверяет пароль и открывает сессию
// @Summary Вход
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.Credentials true "email и пароль"
// @Success 200 {object} model.TokenResponse
// @Failure 401 {object} model.ErrorResponse "неверный email или пароль"
// @Failure 403 {object} model.ErrorResponse "аккаунт отключен"
// @Router /auth/login [post]
func (handler *AuthenticationHandler) Login(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), handler.requestTimeout)
	defer cancel()

	credentials, ok := handler.decodeCredentials(writer, request)
	if !ok {
		return
	}

	result, err := handler.service.Login(ctx, credentials.Email, credentials.Password)
	if errors.Is(err, service.ErrAccountInactive) {
		writeError(writer, http.StatusForbidden, detailInactive)
		return
	}
	if err != nil {
		handler.writeServiceError(writer, request, err)
		return
	}

	handler.writeSession(writer, result)
}

// Refresh выдает новую пару токенов по refresh_token из cookie
// @Summary Обновление токенов
// @Tags Authentication
// @Produce json
// @Success 200 {object} model.TokenResponse
// @Failure 401 {object} model.ErrorResponse "нет или невалидный refresh токен"
// @Router /auth/refresh [post]
func (handler *AuthenticationHandler) Refresh(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), handler.requestTimeout)
	defer cancel()

	refreshToken := cookieValue(request, security.RefreshTokenCookie)
	if refreshToken == "" {
		writeError(writer, http.StatusUnauthorized, detailUnauthorized)
		return
	}

	result, err := handler.service.Refresh(ctx, refreshToken)
	if err != nil {
		handler.writeServiceError(writer, request, err)
		return
	}

	handler.writeSession(writer, result)
}

// Me возвращает профиль текущего пользователя. Вызывается только после RequireAccount.
// @Summary Текущий пользователь
// @Tags Authentication
// @Produce json
// @Success 200 {object} model.Profile
// @Failure 401 {object} model.ErrorResponse "не авторизован"
// @Router /auth/me [get]
func (handler *AuthenticationHandler) Me(writer http.ResponseWriter, request *http.Request) {
	profile, ok := ProfileFromContext(request.Context())
	if !ok {
		writeError(writer, http.StatusUnauthorized, detailUnauthorized)
		return
	}

	writeJSON(writer, http.StatusOK, profile)
}

// Logout очищает обе cookie
// @Summary Выход из аккаунта
// @Tags Authentication
// @Produce json
// @Success 200 {object} model.MessageResponse
// @Router /auth/logout [post]
func (handler *AuthenticationHandler) Logout(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), handler.requestTimeout)
	defer cancel()

	handler.service.Logout(ctx, cookieValue(request, security.RefreshTokenCookie))

	for _, cookie := range handler.cookies.ClearedCookies() {
		http.SetCookie(writer, cookie)
	}
	writeJSON(writer, http.StatusOK, model.MessageResponse{Message: "Successfully logged out"})
}

// RequireAccount пропускает запрос дальше, только если access_token из cookie
// принадлежит активному аккаунту. Профиль кладется в контекст запроса.
func (handler *AuthenticationHandler) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		accessToken := cookieValue(request, security.AccessTokenCookie)
		if accessToken == "" {
			writeError(writer, http.StatusUnauthorized, detailUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(request.Context(), handler.requestTimeout)
		profile, err := handler.service.WhoAmI(ctx, accessToken)
		cancel()
		if err != nil {
			handler.writeServiceError(writer, request, err)
			return
		}

		ctx = context.WithValue(request.Context(), profileContextKey{}, profile)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

func ProfileFromContext(ctx context.Context) (*model.Profile, bool) {
	profile, ok := ctx.Value(profileContextKey{}).(*model.Profile)
	return profile, ok && profile != nil
}

func (handler *AuthenticationHandler) writeSession(writer http.ResponseWriter, result *service.AuthResult) {
	for _, cookie := range handler.cookies.Cookies(result.Session) {
		http.SetCookie(writer, cookie)
	}

	writeJSON(writer, http.StatusOK, model.TokenResponse{
		AccessToken:      result.Session.AccessToken,
		RefreshToken:     result.Session.RefreshToken,
		TokenType:        "bearer",
		ExpiresIn:        int64(result.Session.AccessTTL / time.Second),
		RefreshExpiresIn: int64(result.Session.RefreshTTL / time.Second),
		User:             result.Profile,
	})
}

func (handler *AuthenticationHandler) writeServiceError(writer http.ResponseWriter, request *http.Request, err error) {
	status, detail := errorResponse(err)
	if status >= http.StatusInternalServerError {
		handler.logger.Error("ошибка обработки запроса",
			zap.String("path", request.URL.Path), zap.Error(err))
	} else {
		handler.logger.Debug("запрос отклонен",
			zap.String("path", request.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeError(writer, status, detail)
}

func cookieValue(request *http.Request, name string) string {
	cookie, err := request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// errorResponse ошибки токенов и сессий снаружи выглядят одинаково
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, detailInvalidEmail
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, detailWeakPassword
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return http.StatusBadRequest, detailEmailRegistered
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, detailInvalidCredentials
	case errors.Is(err, service.ErrInvalidAccessToken),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrAccountInactive):
		return http.StatusUnauthorized, detailUnauthorized
	default:
		return http.StatusInternalServerError, detailInternal
	}
}
