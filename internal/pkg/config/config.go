package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// ServerConfig configures boardd, the remote store.
type ServerConfig struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret          string        `env:"JWT_SECRET, required"`
	AnonKey            string        `env:"ANON_KEY, required"`
	ServiceRoleKey     string        `env:"SERVICE_ROLE_KEY, required"`
	TokenTTL           time.Duration `env:"TOKEN_TTL, default=24h"`
	AdminSignupEnabled bool          `env:"ADMIN_SIGNUP_ENABLED, default=true"`
	AuditWorkers       int           `env:"AUDIT_WORKERS, default=8"`
	AuditDedupWindow   time.Duration `env:"AUDIT_DEDUP_WINDOW, default=1h"`
	CloudinaryURL      string        `env:"CLOUDINARY_URL"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI,             default=mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DB,              default=community_board"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	URL      string `env:"REDIS_URL"`
	Addr     string `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,        default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=10"`
}

// IsProduction reports whether logs should be emitted as plain JSON.
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// ClientConfig configures boardctl.
type ClientConfig struct {
	URL      string        `env:"BOARD_URL, required"`
	AnonKey  string        `env:"BOARD_ANON_KEY, required"`
	StateDir string        `env:"BOARD_STATE_DIR"`
	LogLevel string        `env:"LOG_LEVEL, default=warn"`
	Timeout  time.Duration `env:"BOARD_TIMEOUT, default=15s"`
}

// LoadServer reads the server configuration from the environment.
func LoadServer(ctx context.Context) (*ServerConfig, error) {
	return LoadServerFrom(ctx, envconfig.OsLookuper())
}

// LoadServerFrom reads the server configuration through l.
func LoadServerFrom(ctx context.Context, l envconfig.Lookuper) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.AnonKey == cfg.ServiceRoleKey {
		return nil, fmt.Errorf("config: ANON_KEY and SERVICE_ROLE_KEY must differ")
	}
	return &cfg, nil
}

// LoadClient reads the CLI configuration from the environment.
func LoadClient(ctx context.Context) (*ClientConfig, error) {
	return LoadClientFrom(ctx, envconfig.OsLookuper())
}

// LoadClientFrom reads the CLI configuration through l. An empty state dir
// falls back to $HOME/.boardctl.
func LoadClientFrom(ctx context.Context, l envconfig.Lookuper) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".boardctl")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("config: BOARD_TIMEOUT must be positive")
	}
	return &cfg, nil
}
