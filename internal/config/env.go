package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env       string `envconfig:"ENV" default:"local"`
	HTTPHost  string `envconfig:"HTTP_HOST" default:""`
	HTTPPort  string `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"debug"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string `envconfig:"JWT_ISSUER" default:"todoguild"`
}

type StorageEnv struct {
	// Type selects where records live: local, s3 or postgres.
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".todoguild/data"`
	// S3 settings (used when Type or BlobType is "s3")
	S3Bucket   string `envconfig:"S3_BUCKET"`
	S3Prefix   string `envconfig:"S3_PREFIX" default:"todoguild/"`
	S3Region   string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`
	// PostgreSQL settings (used when Type == "postgres")
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// BlobType is where attachments and the event archive go when records
	// are in postgres: local or s3.
	BlobType string `envconfig:"BLOB_TYPE" default:"local"`
}

type Env struct {
	BaseEnv
	StorageEnv
}

// ClientEnv configures the CLI.
type ClientEnv struct {
	ServerURL string        `envconfig:"SERVER_URL" default:"http://localhost:3100"`
	Token     string        `envconfig:"TOKEN"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

const namespace = "TODOGUILD"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if env.JWTSecret == "" {
		return nil, fmt.Errorf("TODOGUILD_JWT_SECRET must not be empty")
	}
	if err := env.StorageEnv.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func LoadClientEnv() (*ClientEnv, error) {
	var env ClientEnv
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *StorageEnv) validate() error {
	switch e.Type {
	case "local", "s3":
	case "postgres":
		if e.DatabaseURL == "" {
			return fmt.Errorf("TODOGUILD_DATABASE_URL is required when TODOGUILD_STORAGE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("unknown storage type %q", e.Type)
	}
	if e.BlobStorageType() == "s3" && e.S3Bucket == "" {
		return fmt.Errorf("TODOGUILD_S3_BUCKET is required for s3 storage")
	}
	return nil
}

// BlobStorageType is the backend for attachment bodies and the event
// archive.
func (e *StorageEnv) BlobStorageType() string {
	if e.Type == "postgres" {
		return e.BlobType
	}
	return e.Type
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
