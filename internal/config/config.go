package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	Postgres PostgresConfig
	S3       S3Config
	Auth     AuthConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type S3Config struct {
	Region    string `env:"S3_REGION" env-required:"true"`
	Bucket    string `env:"S3_BUCKET" env-required:"true"`
	AccessKey string `env:"S3_ACCESS_KEY" env-required:"true"`
	SecretKey string `env:"S3_SECRET_KEY" env-required:"true"`
	// PublicBaseURL overrides the generated object URL base, e.g. a
	// CloudFront distribution in front of the bucket.
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
}

type AuthConfig struct {
	JWTIssuer     string `env:"JWT_ISSUER" env-default:"worksite"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY" env-required:"true"`
}
