package config

import "time"

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Config собирается один раз при старте процесса и дальше только читается.
type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	JWT         JWTConfig      `yaml:"jwt"`
	Password    PasswordConfig `yaml:"password"`
	Refresh     RefreshConfig  `yaml:"refresh"`
	CORS        CORSConfig     `yaml:"cors"`
	Webhook     WebhookConfig  `yaml:"webhook"`
	Log         LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Address         string        `yaml:"address"`
	BasePath        string        `yaml:"base_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver           string `yaml:"driver"`
	ConnectionString string `yaml:"connection_string"`
	Migrate          bool   `yaml:"migrate"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	MaxIdleConns     int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key"`
	Issuer    string `yaml:"issuer"`
	// AccessTokenTTLMinutes и RefreshTokenTTLDays названы так же, как в настройках окружения.
	AccessTokenTTLMinutes int `yaml:"access_token_expire_minutes"`
	RefreshTokenTTLDays   int `yaml:"refresh_token_expire_days"`
}

func (jwtConfig JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(jwtConfig.AccessTokenTTLMinutes) * time.Minute
}

func (jwtConfig JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(jwtConfig.RefreshTokenTTLDays) * 24 * time.Hour
}

type PasswordConfig struct {
	Algorithm     string `yaml:"algorithm"`
	BcryptCost    int    `yaml:"bcrypt_cost"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	MinLength     int    `yaml:"min_length"`
}

type RefreshConfig struct {
	// ReuseDetection: none, memory или redis.
	ReuseDetection string `yaml:"reuse_detection"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Pretty  bool   `yaml:"pretty"`
	Version string `yaml:"version"`
}

// SecureCookies сообщает, нужно ли выставлять cookie атрибут Secure.
func (cfg *Config) SecureCookies() bool {
	return cfg.Environment != EnvironmentDevelopment
}
