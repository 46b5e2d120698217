package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. POSTSAPI_SERVER_PORT.
const EnvPrefix = "POSTSAPI"

// Storage drivers
const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds the process configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the post store. Path and EncryptionPassphrase apply
// to badger, DSN to the SQL drivers.
type StorageConfig struct {
	Driver               string `mapstructure:"driver"`
	Path                 string `mapstructure:"path"`
	DSN                  string `mapstructure:"dsn"`
	EncryptionPassphrase string `mapstructure:"encryption_passphrase"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("storage.driver", DriverBadger)
	v.SetDefault("storage.path", "data/posts.db")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.encryption_passphrase", "")
	v.SetDefault("log.level", "info")
}

// Load reads .env (if present), then configs/config.yaml (if present) from
// the given search paths, then POSTSAPI_* environment variables. Later
// sources win.
func Load(searchPaths ...string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{"./configs"}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the store factory cannot open.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverBadger:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the badger driver")
		}
	case DriverPostgres, DriverMySQL:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}
