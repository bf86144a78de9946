package model

// TokenResponse содержит пару access и refresh токенов и профиль пользователя
// swagger:model
type TokenResponse struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"access_token"`

	// Refresh токен (JWT с purpose=refresh, для получения новой пары)
	RefreshToken string `json:"refresh_token"`

	TokenType string `json:"token_type"`

	// Время жизни токенов в секундах
	ExpiresIn        int64 `json:"expires_in"`
	RefreshExpiresIn int64 `json:"refresh_expires_in"`

	User Profile `json:"user"`
}

// Credentials тело запросов register и login
// swagger:model
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse содержит строку с сообщением
// swagger:model
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse тело ответа с ошибкой
// swagger:model
type ErrorResponse struct {
	Detail string `json:"detail"`
}
