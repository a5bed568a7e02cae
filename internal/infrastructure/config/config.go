package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	AuthAPI        string        `env:"AUTH_API,             default=http://localhost:3000/api/auth"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT,         default=15s"`
	DetailedErrors bool          `env:"AUTH_DETAILED_ERRORS, default=false"`
	LogLevel       string        `env:"LOG_LEVEL,            default=info"`
	LogPretty      bool          `env:"LOG_PRETTY,           default=true"`
	AgentAddr      string        `env:"AGENT_ADDR,           default=127.0.0.1:8787"`

	Storage  StorageConfig
	Redis    RedisConfig    `env:", prefix=REDIS_"`
	Mongo    MongoConfig    `env:", prefix=MONGO_"`
	Google   ProviderConfig `env:", prefix=GOOGLE_"`
	Facebook ProviderConfig `env:", prefix=FACEBOOK_"`
}

type StorageConfig struct {
	Driver      string `env:"STORAGE_DRIVER, default=file"`
	SessionFile string `env:"SESSION_FILE,   default=~/.config/console-auth/session.json"`
}

type RedisConfig struct {
	Addr     string        `env:"ADDR,     default=localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB,       default=0"`
	Prefix   string        `env:"PREFIX,   default=console-auth"`
	TTL      time.Duration `env:"TTL,      default=0s"`
}

type MongoConfig struct {
	URI        string `env:"URI,        default=mongodb://localhost:27017"`
	Database   string `env:"DB,         default=console_auth"`
	Collection string `env:"COLLECTION, default=session_keys"`
}

// ProviderConfig holds one identity provider's OAuth client. A provider with
// no client id is left out.
type ProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackPort int    `env:"CALLBACK_PORT, default=0"`
}

func (p ProviderConfig) Enabled() bool { return p.ClientID != "" }

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageFile, StorageRedis, StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.AuthAPI == "" {
		return fmt.Errorf("AUTH_API is required")
	}
	return nil
}
