package security

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-test-secret-test-secret")

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (clock *testClock) Now() time.Time { return clock.now }

func (clock *testClock) Advance(d time.Duration) { clock.now = clock.now.Add(d) }

func newTestCodec(t *testing.T, clock *testClock) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testSecret, WithClock(clock.Now))
	require.NoError(t, err)
	return codec
}

// tamperSignature меняет символ в середине подписи, чтобы изменились байты подписи
func tamperSignature(token string) string {
	index := strings.LastIndex(token, ".") + 5
	replacement := byte('A')
	if token[index] == 'A' {
		replacement = 'B'
	}
	return token[:index] + string(replacement) + token[index+1:]
}

func TestEncodeDecode_Access(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)

	token, err := codec.Encode("42", PurposeAccess, 15*time.Minute)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := codec.Decode(token, PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, PurposeAccess, claims.Purpose)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
	assert.Equal(t, clock.Now().Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, clock.Now().Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestDecode_WrongPurpose(t *testing.T) {
	codec := newTestCodec(t, newTestClock())

	access, err := codec.Encode("42", PurposeAccess, time.Minute)
	require.NoError(t, err)
	refresh, err := codec.Encode("42", PurposeRefresh, time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode(access, PurposeRefresh)
	assert.ErrorIs(t, err, ErrWrongPurpose)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = codec.Decode(refresh, PurposeAccess)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	_, err = codec.Decode(refresh, PurposeRefresh)
	assert.NoError(t, err)
}

func TestDecode_TamperedSignature(t *testing.T) {
	codec := newTestCodec(t, newTestClock())

	for _, purpose := range []Purpose{PurposeAccess, PurposeRefresh} {
		token, err := codec.Encode("42", purpose, time.Hour)
		require.NoError(t, err)

		_, err = codec.Decode(tamperSignature(token), purpose)
		assert.ErrorIs(t, err, ErrInvalidSignature)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestDecode_AnyChangeOfLastSignatureCharFails(t *testing.T) {
	codec := newTestCodec(t, newTestClock())
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	token, err := codec.Encode("42", PurposeAccess, time.Hour)
	require.NoError(t, err)
	last := token[len(token)-1]

	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == last {
			continue
		}
		altered := token[:len(token)-1] + string(alphabet[i])

		_, err := codec.Decode(altered, PurposeAccess)
		assert.ErrorIs(t, err, ErrInvalidSignature, "%c -> %c", last, alphabet[i])
	}
}

func TestDecode_TamperedClaims(t *testing.T) {
	codec := newTestCodec(t, newTestClock())

	token, err := codec.Encode("42", PurposeRefresh, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), `"purpose":"refresh"`, `"purpose":"access"`, 1)
	require.NotEqual(t, string(payload), forged)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = codec.Decode(strings.Join(parts, "."), PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecode_Expired(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)

	token, err := codec.Encode("42", PurposeAccess, 15*time.Minute)
	require.NoError(t, err)

	clock.Advance(15*time.Minute - time.Second)
	_, err = codec.Decode(token, PurposeAccess)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = codec.Decode(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrExpired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_ExpiredChecksBeforePurpose(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)

	token, err := codec.Encode("42", PurposeAccess, time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	_, err = codec.Decode(token, PurposeRefresh)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrWrongPurpose)
}

func TestDecode_ForgedAndExpiredFailsOnSignature(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)
	foreign, err := NewTokenCodec([]byte("another-secret"), WithClock(clock.Now))
	require.NoError(t, err)

	token, err := foreign.Encode("42", PurposeAccess, time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	_, err = codec.Decode(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.NotErrorIs(t, err, ErrExpired)
}

func TestDecode_RejectsNoneAlgorithm(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)

	claims := Claims{
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    DefaultIssuer,
			ID:        "id",
			IssuedAt:  jwt.NewNumericDate(clock.Now()),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecode_MissingRequiredClaims(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)
	now := clock.Now()

	valid := func() Claims {
		return Claims{
			Purpose: PurposeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "42",
				Issuer:    DefaultIssuer,
				ID:        "token-id",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(claims *Claims)
	}{
		{"no subject", func(claims *Claims) { claims.Subject = "" }},
		{"no issued at", func(claims *Claims) { claims.IssuedAt = nil }},
		{"no expiry", func(claims *Claims) { claims.ExpiresAt = nil }},
		{"no id", func(claims *Claims) { claims.ID = "" }},
		{"foreign issuer", func(claims *Claims) { claims.Issuer = "someone-else" }},
		{"no purpose", func(claims *Claims) { claims.Purpose = "" }},
		{"unknown purpose", func(claims *Claims) { claims.Purpose = "admin" }},
		{"issued in the future", func(claims *Claims) { claims.IssuedAt = jwt.NewNumericDate(now.Add(time.Minute)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := valid()
			tt.mutate(&claims)
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
			require.NoError(t, err)

			_, err = codec.Decode(token, PurposeAccess)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestDecode_Garbage(t *testing.T) {
	codec := newTestCodec(t, newTestClock())

	for _, token := range []string{"", "abc", "a.b.c", "a.b"} {
		_, err := codec.Decode(token, PurposeAccess)
		assert.ErrorIs(t, err, ErrMalformedToken, token)
	}
}

func TestEncode_EveryIssuanceIsUnique(t *testing.T) {
	codec := newTestCodec(t, newTestClock())

	first, err := codec.Encode("42", PurposeRefresh, time.Hour)
	require.NoError(t, err)
	second, err := codec.Encode("42", PurposeRefresh, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, first[strings.LastIndex(first, ".")+1:], second[strings.LastIndex(second, ".")+1:])
}

func TestEncode_InvalidInput(t *testing.T) {
	codec := newTestCodec(t, newTestClock())

	_, err := codec.Encode("", PurposeAccess, time.Minute)
	assert.Error(t, err)
	_, err = codec.Encode("42", Purpose("admin"), time.Minute)
	assert.Error(t, err)
	_, err = codec.Encode("42", PurposeAccess, 0)
	assert.Error(t, err)
}

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	_, err := NewTokenCodec(nil)
	assert.Error(t, err)
}
