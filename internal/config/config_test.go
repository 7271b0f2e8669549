package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Search.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", cfg.Search.PageSize)
	}
	if cfg.Search.QuietInterval != 400*time.Millisecond {
		t.Errorf("QuietInterval = %v, want 400ms", cfg.Search.QuietInterval)
	}
	if cfg.Catalog.Timeout != 30*time.Second {
		t.Errorf("Catalog.Timeout = %v, want 30s", cfg.Catalog.Timeout)
	}
	if cfg.Catalog.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.Catalog.MaxRetries)
	}
	if cfg.Browse.TTL != 10*time.Minute {
		t.Errorf("Browse.TTL = %v, want 10m", cfg.Browse.TTL)
	}
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.Server.SessionTTL)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error: %v", err)
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookscout.yml")
	yml := `
log:
  level: debug
search:
  page_size: 10
  quiet_interval: 250ms
catalog:
  provider: openlibrary
shelf:
  backend: redis
redis:
  url: localhost:6379
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "9090")
	t.Setenv("BOOKSCOUT_PAGE_SIZE", "30")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Search.QuietInterval != 250*time.Millisecond {
		t.Errorf("QuietInterval = %v, want 250ms", cfg.Search.QuietInterval)
	}
	if cfg.Search.PageSize != 30 {
		t.Errorf("PageSize = %d, want env override 30", cfg.Search.PageSize)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Catalog.Provider != "openlibrary" {
		t.Errorf("Provider = %q, want openlibrary", cfg.Catalog.Provider)
	}
	if cfg.Catalog.Timeout != 30*time.Second {
		t.Errorf("unset value lost its default: Timeout = %v", cfg.Catalog.Timeout)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yml     string
		env     map[string]string
		wantErr string
	}{
		{"bad duration env", "", map[string]string{"BOOKSCOUT_QUIET_INTERVAL": "soon"}, "BOOKSCOUT_QUIET_INTERVAL"},
		{"bad int env", "", map[string]string{"BOOKSCOUT_PAGE_SIZE": "many"}, "BOOKSCOUT_PAGE_SIZE"},
		{"zero page size", "search:\n  page_size: 0\n", nil, "page_size"},
		{"negative retries", "catalog:\n  max_retries: -1\n", nil, "max_retries"},
		{"redis backend without url", "shelf:\n  backend: redis\n", nil, "redis.url"},
		{"mongo backend without uri", "shelf:\n  backend: mongo\n", nil, "mongo.uri"},
		{"unknown backend", "shelf:\n  backend: sqlite\n", nil, "unknown shelf.backend"},
		{"malformed yaml", "search: [", nil, "parse config"},
		{"unknown log level", "log:\n  level: verbose\n", nil, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yml")
			if err := os.WriteFile(path, []byte(tt.yml), 0o644); err != nil {
				t.Fatal(err)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		url      string
		wantAddr string
		wantDB   int
		wantNil  bool
	}{
		{url: "", wantNil: true},
		{url: "localhost:6379", wantAddr: "localhost:6379"},
		{url: "redis://cache:6380/2", wantAddr: "cache:6380", wantDB: 2},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := Default()
			cfg.Redis.URL = tt.url
			opts, err := cfg.RedisOptions()
			if err != nil {
				t.Fatalf("RedisOptions() error: %v", err)
			}
			if tt.wantNil {
				if opts != nil {
					t.Errorf("RedisOptions() = %+v, want nil", opts)
				}
				return
			}
			if opts.Addr != tt.wantAddr || opts.DB != tt.wantDB {
				t.Errorf("RedisOptions() = %s db %d, want %s db %d", opts.Addr, opts.DB, tt.wantAddr, tt.wantDB)
			}
		})
	}
}
