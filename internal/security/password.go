package security

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
	"runtime"
	"strconv"
	"strings"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	argon2Prefix = "$argon2id$"

	// bcrypt учитывает только первые 72 байта пароля
	maxBcryptPasswordLength = 72

	// ограничения на параметры из сохраненного хэша, чтобы чужой хэш не съел всю память
	maxArgon2Memory uint32 = 1 << 20
	maxArgon2Time   uint32 = 16
	minArgon2KeyLen        = 16
)

type Argon2Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

type PasswordConfig struct {
	Algorithm     string
	BcryptCost    int
	Argon2        Argon2Params
	MaxConcurrent int
}

// PasswordHasher хэширует и проверяет пароли. Одновременно считается не больше
// MaxConcurrent хэшей, остальные вызовы ждут слот или отмену контекста.
type PasswordHasher struct {
	config      PasswordConfig
	slots       *semaphore.Weighted
	dummyDigest string
}

func NewPasswordHasher(config PasswordConfig) (*PasswordHasher, error) {
	switch config.Algorithm {
	case "", AlgorithmBcrypt:
		config.Algorithm = AlgorithmBcrypt
		if config.BcryptCost == 0 {
			config.BcryptCost = bcrypt.DefaultCost
		}
		if config.BcryptCost < bcrypt.MinCost || config.BcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("недопустимая стоимость bcrypt: %d", config.BcryptCost)
		}
	case AlgorithmArgon2id:
		if config.Argon2 == (Argon2Params{}) {
			config.Argon2 = DefaultArgon2Params
		}
		if config.Argon2.Time < 1 || config.Argon2.Parallelism < 1 || config.Argon2.SaltLength < 16 || config.Argon2.KeyLength < minArgon2KeyLen {
			return nil, errors.New("недопустимые параметры argon2id")
		}
	default:
		return nil, fmt.Errorf("неизвестный алгоритм хэширования: %q", config.Algorithm)
	}

	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = runtime.GOMAXPROCS(0)
	}

	hasher := &PasswordHasher{
		config: config,
		slots:  semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}

	filler := make([]byte, 24)
	if _, err := rand.Read(filler); err != nil {
		return nil, fmt.Errorf("ошибка генерации: %w", err)
	}
	dummyDigest, err := hasher.hash([]byte(base64.RawStdEncoding.EncodeToString(filler)))
	if err != nil {
		return nil, err
	}
	hasher.dummyDigest = dummyDigest

	return hasher, nil
}

// Hash возвращает соленый хэш пароля, соль хранится внутри результата.
func (hasher *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := hasher.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer hasher.slots.Release(1)

	return hasher.hash([]byte(plaintext))
}

// Verify сравнивает пароль с хэшем за время, не зависящее от места расхождения.
// Битый хэш просто не проходит проверку. Пустой хэш сверяется с одноразовым,
// чтобы проверка отсутствующего пользователя стоила столько же, сколько настоящая.
// Ошибка возвращается только при отмене контекста.
func (hasher *PasswordHasher) Verify(ctx context.Context, plaintext string, digest string) (bool, error) {
	if err := hasher.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer hasher.slots.Release(1)

	if digest == "" {
		hasher.compare([]byte(plaintext), hasher.dummyDigest)
		return false, nil
	}

	return hasher.compare([]byte(plaintext), digest), nil
}

func (hasher *PasswordHasher) hash(plaintext []byte) (string, error) {
	if hasher.config.Algorithm == AlgorithmArgon2id {
		return hashArgon2id(plaintext, hasher.config.Argon2)
	}

	hashed, err := bcrypt.GenerateFromPassword(plaintext, hasher.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хэширования: %w", err)
	}
	return string(hashed), nil
}

func (hasher *PasswordHasher) compare(plaintext []byte, digest string) bool {
	if strings.HasPrefix(digest, argon2Prefix) {
		return compareArgon2id(plaintext, digest)
	}
	if len(plaintext) > maxBcryptPasswordLength {
		// сравнение все равно выполняется, чтобы длинный пароль не отвечал быстрее
		bcrypt.CompareHashAndPassword([]byte(digest), plaintext[:maxBcryptPasswordLength])
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), plaintext) == nil
}

func hashArgon2id(plaintext []byte, params Argon2Params) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	key := argon2.IDKey(plaintext, salt, params.Time, params.Memory, params.Parallelism, params.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory,
		params.Time,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func compareArgon2id(plaintext []byte, digest string) bool {
	params, salt, key, ok := parseArgon2id(digest)
	if !ok {
		return false
	}

	computed := argon2.IDKey(plaintext, salt, params.Time, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// parseArgon2id разбирает строку вида $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
func parseArgon2id(digest string) (Argon2Params, []byte, []byte, bool) {
	var params Argon2Params

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != AlgorithmArgon2id {
		return params, nil, nil, false
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return params, nil, nil, false
	}

	for _, pair := range strings.Split(parts[3], ",") {
		name, raw, found := strings.Cut(pair, "=")
		if !found {
			return params, nil, nil, false
		}
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return params, nil, nil, false
		}
		switch name {
		case "m":
			params.Memory = uint32(value)
		case "t":
			params.Time = uint32(value)
		case "p":
			if value > 255 {
				return params, nil, nil, false
			}
			params.Parallelism = uint8(value)
		default:
			return params, nil, nil, false
		}
	}
	if params.Time < 1 || params.Time > maxArgon2Time || params.Parallelism < 1 ||
		params.Memory < 8*uint32(params.Parallelism) || params.Memory > maxArgon2Memory {
		return params, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < minArgon2KeyLen {
		return params, nil, nil, false
	}

	return params, salt, key, true
}
