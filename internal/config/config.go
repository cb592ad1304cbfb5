package config

import (
	"errors"
	"strings"
	"time"

	libconfig "chargeamps/libs/config"
)

// Config holds account credentials plus optional cache and archive settings.
// The account keys sit at the top level so a plain
// {"username": ..., "password": ..., "api_key": ...} JSON file loads as is.
type Config struct {
	Username string `yaml:"username" env:"CHARGEAMPS_USERNAME"`
	Password string `yaml:"password" env:"CHARGEAMPS_PASSWORD"`
	APIKey   string `yaml:"api_key" env:"CHARGEAMPS_API_KEY"`

	API struct {
		BaseURL            string `yaml:"baseURL" env:"CHARGEAMPS_API_BASE_URL"`
		InsecureSkipVerify bool   `yaml:"insecureSkipVerify" env:"CHARGEAMPS_API_INSECURE_SKIP_VERIFY"`
	} `yaml:"api"`
	HTTP struct {
		TimeoutSeconds int `yaml:"timeoutSeconds" env:"CHARGEAMPS_HTTP_TIMEOUT"`
	} `yaml:"http"`
	Redis struct {
		Addr     string `yaml:"addr" env:"CHARGEAMPS_REDIS_ADDR"`
		Password string `yaml:"password" env:"CHARGEAMPS_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"CHARGEAMPS_REDIS_DB"`
	} `yaml:"redis"`
	Database struct {
		DSN string `yaml:"dsn" env:"CHARGEAMPS_POSTGRES_DSN"`
	} `yaml:"database"`
}

// Load reads configuration from path (or CONFIG_FILE when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if strings.TrimSpace(path) == "" {
		err = libconfig.LoadConfig(cfg)
	} else {
		err = libconfig.LoadFile(path, cfg)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Username) == "" {
		return nil, errors.New("config: username is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("config: password is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("config: api_key is required")
	}
	return cfg, nil
}

// HTTPTimeout converts the configured timeout to a duration; zero means none.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTP.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// CacheEnabled reports whether a redis credential cache is configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// ArchiveEnabled reports whether a session archive database is configured.
func (c *Config) ArchiveEnabled() bool {
	return strings.TrimSpace(c.Database.DSN) != ""
}
