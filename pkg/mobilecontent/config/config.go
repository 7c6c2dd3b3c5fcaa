// Package config loads server configuration from the environment and builds
// the service with its collaborators wired in.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
	"github.com/mobilehub/mobile-content/pkg/mobilecontent/media"
	"github.com/mobilehub/mobile-content/pkg/mobilecontent/repo/memory"
	repopg "github.com/mobilehub/mobile-content/pkg/mobilecontent/repo/postgres"
	fsstorage "github.com/mobilehub/mobile-content/pkg/mobilecontent/storage/fs"
	memorystorage "github.com/mobilehub/mobile-content/pkg/mobilecontent/storage/memory"
	s3storage "github.com/mobilehub/mobile-content/pkg/mobilecontent/storage/s3"
)

// ServerConfig represents server configuration for the mobile-content service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Database configuration. DATABASE_URL with a postgres scheme selects
	// the postgres repository; empty or "memory" selects in-memory.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`
	DBSchema    string `env:"DB_SCHEMA" env-default:"mobile_content"`

	// Storage configuration
	StorageBackend string `env:"STORAGE_BACKEND" env-default:"memory"` // memory, fs, s3

	FSBaseDir   string `env:"FS_BASE_DIR" env-default:"./data/storage"`
	FSURLPrefix string `env:"FS_URL_PREFIX" env-default:""`

	S3Region                 string `env:"S3_REGION" env-default:"us-east-1"`
	S3Bucket                 string `env:"S3_BUCKET" env-default:""`
	S3AccessKeyID            string `env:"S3_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey        string `env:"S3_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint               string `env:"S3_ENDPOINT" env-default:""`
	S3UsePathStyle           bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3PresignDuration        int    `env:"S3_PRESIGN_DURATION" env-default:"3600"`
	S3CreateBucketIfNotExist bool   `env:"S3_CREATE_BUCKET_IF_NOT_EXIST" env-default:"false"`

	// Auth configuration. The seeded admin is the credential API callers
	// authenticate with; JWTSecret enables bearer tokens.
	AdminLogin     string `env:"ADMIN_LOGIN" env-default:"admin"`
	AdminEmail     string `env:"ADMIN_EMAIL" env-default:""`
	AdminPassword  string `env:"ADMIN_PASSWORD" env-default:""`
	JWTSecret      string `env:"JWT_SECRET" env-default:""`
	TokenTTLMinute int    `env:"TOKEN_TTL_MINUTES" env-default:"60"`

	// Server options
	EnableEventLogging bool `env:"ENABLE_EVENT_LOGGING" env-default:"true"`
}

// Option applies configuration overrides on top of the environment.
type Option func(*ServerConfig) error

// Load reads configuration from the environment, applies the supplied
// options, and validates the result.
func Load(opts ...Option) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseURL != "" && c.DatabaseURL != "memory" && !isPostgresURL(c.DatabaseURL) {
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", c.DatabaseURL)
	}

	switch c.StorageBackend {
	case "memory", "fs":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("s3_bucket is required when using s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage backend type: %s", c.StorageBackend)
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("admin_email and admin_password must be set together")
	}

	return nil
}

func isPostgresURL(u string) bool {
	return strings.HasPrefix(u, "postgresql://") || strings.HasPrefix(u, "postgres://")
}

// UsesPostgres reports whether the configuration selects the postgres repository.
func (c *ServerConfig) UsesPostgres() bool {
	return isPostgresURL(c.DatabaseURL)
}

// TokenAuth returns the JWT authenticator, or nil when no secret is
// configured and bearer tokens are disabled.
func (c *ServerConfig) TokenAuth() *jwtauth.JWTAuth {
	if c.JWTSecret == "" {
		return nil
	}
	return jwtauth.New("HS256", []byte(c.JWTSecret), nil)
}

// TokenTTL returns the lifetime of issued bearer tokens.
func (c *ServerConfig) TokenTTL() time.Duration {
	if c.TokenTTLMinute <= 0 {
		return time.Hour
	}
	return time.Duration(c.TokenTTLMinute) * time.Minute
}

// BuildService creates the service and its user store from the configuration.
// The user store is returned separately because the HTTP layer authenticates
// against it directly.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (mobilecontent.Service, mobilecontent.UserStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repo, users, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.buildStorageBackend()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build storage backend %s: %w", c.StorageBackend, err)
	}

	options := []mobilecontent.Option{
		mobilecontent.WithRepository(repo),
		mobilecontent.WithUserStore(users),
		mobilecontent.WithBlobStore(c.StorageBackend, store),
		mobilecontent.WithSideloader(media.NewSideloader(repo, store, c.StorageBackend, media.WithLogger(logger))),
		mobilecontent.WithLogger(logger),
	}
	if c.EnableEventLogging {
		options = append(options, mobilecontent.WithEventSink(mobilecontent.NewLogEventSink(logger)))
	}

	svc, err := mobilecontent.New(options...)
	if err != nil {
		return nil, nil, err
	}

	if err := c.seedAdmin(ctx, users); err != nil {
		return nil, nil, fmt.Errorf("failed to seed admin user: %w", err)
	}

	return svc, users, nil
}

// buildRepository creates the repository and user store, sharing one pgx pool
// when postgres is configured.
func (c *ServerConfig) buildRepository(ctx context.Context) (mobilecontent.Repository, mobilecontent.UserStore, error) {
	if !c.UsesPostgres() {
		return memory.New(), memory.NewUserStore(), nil
	}

	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	schema := c.DBSchema
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if schema == "" {
			return nil
		}
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	return repopg.NewWithPool(pool), repopg.NewUserStoreWithPool(pool), nil
}

// buildStorageBackend creates a BlobStore based on the configuration
func (c *ServerConfig) buildStorageBackend() (mobilecontent.BlobStore, error) {
	switch c.StorageBackend {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.FSBaseDir,
			URLPrefix: c.FSURLPrefix,
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.S3Region,
			Bucket:                 c.S3Bucket,
			AccessKeyID:            c.S3AccessKeyID,
			SecretAccessKey:        c.S3SecretAccessKey,
			Endpoint:               c.S3Endpoint,
			UsePathStyle:           c.S3UsePathStyle,
			PresignDuration:        c.S3PresignDuration,
			CreateBucketIfNotExist: c.S3CreateBucketIfNotExist,
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.StorageBackend)
	}
}

// seedAdmin creates the configured admin credential if it does not exist yet.
func (c *ServerConfig) seedAdmin(ctx context.Context, users mobilecontent.UserStore) error {
	if c.AdminEmail == "" || c.AdminPassword == "" {
		return nil
	}

	hash, err := mobilecontent.HashPassword(c.AdminPassword)
	if err != nil {
		return err
	}

	err = users.CreateUser(ctx, &mobilecontent.User{
		ID:           uuid.New(),
		Login:        c.AdminLogin,
		Email:        c.AdminEmail,
		PasswordHash: hash,
	})
	if err != nil && !errors.Is(err, mobilecontent.ErrDuplicateEmail) {
		return err
	}
	return nil
}

// PingPostgres verifies connectivity to Postgres and optionally sets
// search_path for the session. It fails if the schema does not exist.
func PingPostgres(databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
