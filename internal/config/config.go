// Package config loads bookscout configuration.
//
// Order: defaults -> YAML file (optional) -> environment overrides -> Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Shelf store backends.
const (
	ShelfBackendMemory = "memory"
	ShelfBackendRedis  = "redis"
	ShelfBackendMongo  = "mongo"
)

// Config is the application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
	Browse  BrowseConfig  `yaml:"browse"`
	Shelf   ShelfConfig   `yaml:"shelf"`
	Redis   RedisConfig   `yaml:"redis"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Auth    AuthConfig    `yaml:"auth"`
	State   StateConfig   `yaml:"state"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// SessionTTL is how long an idle search session is kept.
	SessionTTL time.Duration `yaml:"session_ttl"`
	// MaxSessions bounds the number of live search sessions.
	MaxSessions     int           `yaml:"max_sessions"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type CatalogConfig struct {
	Provider   string        `yaml:"provider"`
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type SearchConfig struct {
	PageSize      int           `yaml:"page_size"`
	QuietInterval time.Duration `yaml:"quiet_interval"`
}

type BrowseConfig struct {
	ShelfSize int           `yaml:"shelf_size"`
	TTL       time.Duration `yaml:"ttl"`
}

type ShelfConfig struct {
	Backend string `yaml:"backend"`
}

type RedisConfig struct {
	// URL is either a redis:// URL or a host:port address. Empty disables Redis.
	URL string `yaml:"url"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type StateConfig struct {
	// File is where the terminal client keeps its last query and page.
	File string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Port:            "8080",
			SessionTTL:      30 * time.Minute,
			MaxSessions:     1000,
			ShutdownTimeout: 5 * time.Second,
		},
		Catalog: CatalogConfig{
			Provider:  "googlebooks",
			UserAgent: "bookscout/0.1.0",
			Timeout:   30 * time.Second,
		},
		Search: SearchConfig{
			PageSize:      20,
			QuietInterval: 400 * time.Millisecond,
		},
		Browse: BrowseConfig{
			ShelfSize: 20,
			TTL:       10 * time.Minute,
		},
		Shelf: ShelfConfig{Backend: ShelfBackendMemory},
		Mongo: MongoConfig{Database: "bookscout"},
		State: StateConfig{File: defaultStateFile()},
	}
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".bookscout-navstate.json"
	}
	return filepath.Join(dir, "bookscout", "navstate.json")
}

// Load builds the configuration. path may be empty; a non-empty path must
// exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnvOverrides applies BOOKSCOUT_* variables plus PORT and REDIS_URL.
func (c *Config) ApplyEnvOverrides() error {
	var errs []error

	setString(&c.Log.Level, "BOOKSCOUT_LOG_LEVEL")
	errs = append(errs, setBool(&c.Log.Pretty, "BOOKSCOUT_LOG_PRETTY"))

	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Port, "BOOKSCOUT_PORT")
	errs = append(errs, setDuration(&c.Server.SessionTTL, "BOOKSCOUT_SESSION_TTL"))

	setString(&c.Catalog.Provider, "BOOKSCOUT_CATALOG_PROVIDER")
	setString(&c.Catalog.BaseURL, "BOOKSCOUT_CATALOG_BASE_URL")
	setString(&c.Catalog.APIKey, "BOOKSCOUT_CATALOG_API_KEY")
	setString(&c.Catalog.UserAgent, "BOOKSCOUT_USER_AGENT")
	errs = append(errs,
		setDuration(&c.Catalog.Timeout, "BOOKSCOUT_CATALOG_TIMEOUT"),
		setInt(&c.Catalog.MaxRetries, "BOOKSCOUT_CATALOG_MAX_RETRIES"),
		setInt(&c.Search.PageSize, "BOOKSCOUT_PAGE_SIZE"),
		setDuration(&c.Search.QuietInterval, "BOOKSCOUT_QUIET_INTERVAL"),
		setDuration(&c.Browse.TTL, "BOOKSCOUT_SHELVES_TTL"),
	)

	setString(&c.Shelf.Backend, "BOOKSCOUT_SHELF_BACKEND")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Mongo.URI, "BOOKSCOUT_MONGO_URI")
	setString(&c.Mongo.Database, "BOOKSCOUT_MONGO_DATABASE")
	setString(&c.Auth.JWTSecret, "BOOKSCOUT_JWT_SECRET")
	setString(&c.State.File, "BOOKSCOUT_STATE_FILE")

	return errors.Join(errs...)
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.page_size must be > 0 (got %d)", c.Search.PageSize)
	}
	if c.Search.QuietInterval <= 0 {
		return fmt.Errorf("search.quiet_interval must be > 0 (got %s)", c.Search.QuietInterval)
	}
	if c.Catalog.MaxRetries < 0 {
		return fmt.Errorf("catalog.max_retries must be >= 0 (got %d)", c.Catalog.MaxRetries)
	}
	if c.Browse.TTL <= 0 {
		return fmt.Errorf("browse.ttl must be > 0 (got %s)", c.Browse.TTL)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.session_ttl must be > 0 (got %s)", c.Server.SessionTTL)
	}

	switch c.Shelf.Backend {
	case ShelfBackendMemory:
	case ShelfBackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("shelf.backend %q requires redis.url", c.Shelf.Backend)
		}
	case ShelfBackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("shelf.backend %q requires mongo.uri", c.Shelf.Backend)
		}
	default:
		return fmt.Errorf("unknown shelf.backend %q", c.Shelf.Backend)
	}
	return nil
}

// RedisOptions parses Redis.URL. It returns nil when Redis is not configured.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if c.Redis.URL == "" {
		return nil, nil
	}
	if strings.Contains(c.Redis.URL, "://") {
		opts, err := redis.ParseURL(c.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.Redis.URL}, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
