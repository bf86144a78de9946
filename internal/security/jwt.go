package security

import (
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"strings"
	"time"
)

// Purpose назначение токена. Токен одного назначения никогда не принимается вместо другого.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
)

func (purpose Purpose) Valid() bool {
	return purpose == PurposeAccess || purpose == PurposeRefresh
}

var (
	// ErrInvalidToken общий класс ошибок декодирования, все ошибки ниже его оборачивают.
	ErrInvalidToken = errors.New("невалидный токен")

	ErrMalformedToken   = fmt.Errorf("%w: неверный формат токена", ErrInvalidToken)
	ErrInvalidSignature = fmt.Errorf("%w: неверная подпись", ErrInvalidToken)
	ErrExpired          = fmt.Errorf("%w: токен просрочен", ErrInvalidToken)
	ErrWrongPurpose     = fmt.Errorf("%w: неверное назначение токена", ErrInvalidToken)
)

var signingMethod = jwt.SigningMethodHS512

const DefaultIssuer = "verifly"

type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type CodecOption func(codec *TokenCodec)

func WithIssuer(issuer string) CodecOption {
	return func(codec *TokenCodec) {
		codec.issuer = issuer
	}
}

// WithClock подменяет источник времени, используется в тестах.
func WithClock(now func() time.Time) CodecOption {
	return func(codec *TokenCodec) {
		codec.now = now
	}
}

func NewTokenCodec(secret []byte, options ...CodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("пустой секретный ключ")
	}

	codec := &TokenCodec{
		secret: append([]byte(nil), secret...),
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, option := range options {
		option(codec)
	}

	return codec, nil
}

// Encode подписывает токен для subject с назначением purpose, живущий ttl.
func (codec *TokenCodec) Encode(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("пустой subject")
	}
	if !purpose.Valid() {
		return "", fmt.Errorf("неизвестное назначение токена: %q", purpose)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("время жизни токена должно быть положительным: %s", ttl)
	}

	now := codec.now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(signingMethod, claims).SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return token, nil
}

// Decode проверяет подпись, затем срок действия, затем назначение токена.
// Поля claims не читаются, пока подпись не проверена.
func (codec *TokenCodec) Decode(tokenString string, expected Purpose) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(codec.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return codec.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && brokenSignatureSegment(parser, tokenString) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		}
		return nil, classifyParseError(err)
	}

	if err := codec.checkRequiredClaims(claims); err != nil {
		return nil, err
	}

	if claims.Purpose != expected {
		return nil, fmt.Errorf("%w: ожидался %q, получен %q", ErrWrongPurpose, expected, claims.Purpose)
	}

	return claims, nil
}

func (codec *TokenCodec) checkRequiredClaims(claims *Claims) error {
	switch {
	case claims.Subject == "":
		return fmt.Errorf("%w: нет sub", ErrMalformedToken)
	case claims.IssuedAt == nil:
		return fmt.Errorf("%w: нет iat", ErrMalformedToken)
	case claims.ID == "":
		return fmt.Errorf("%w: нет jti", ErrMalformedToken)
	case claims.Issuer != codec.issuer:
		return fmt.Errorf("%w: чужой iss %q", ErrMalformedToken, claims.Issuer)
	case !claims.Purpose.Valid():
		return fmt.Errorf("%w: неизвестный purpose %q", ErrMalformedToken, claims.Purpose)
	}
	return nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}

// brokenSignatureSegment заголовок и claims декодируются, а подпись нет: подпись изменена
func brokenSignatureSegment(parser *jwt.Parser, tokenString string) bool {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts[:2] {
		if _, err := parser.DecodeSegment(part); err != nil {
			return false
		}
	}
	_, err := parser.DecodeSegment(parts[2])
	return err != nil
}
