package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://127.0.0.1:5055" {
			t.Errorf("expected api base url http://127.0.0.1:5055, got %s", config.API.BaseURL)
		}
		if config.Database.Path != "./nbx.db" {
			t.Errorf("expected database path ./nbx.db, got %s", config.Database.Path)
		}
		if config.Dashboard.RecentLimit != 6 {
			t.Errorf("expected recent limit 6, got %d", config.Dashboard.RecentLimit)
		}
		if config.API.Timeout != 0 {
			t.Errorf("expected no timeout by default, got %v", config.API.Timeout)
		}
		if config.Web.URL != "http://127.0.0.1:8502" {
			t.Errorf("expected web url http://127.0.0.1:8502, got %s", config.Web.URL)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[api]
base_url = "https://notebooks.example.com"
timeout = "15s"
rate_limit = 2.5

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://notebooks.example.com" {
			t.Errorf("expected custom base url, got %s", config.API.BaseURL)
		}
		if config.API.Timeout != 15*time.Second {
			t.Errorf("expected timeout 15s, got %v", config.API.Timeout)
		}
		if config.API.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %v", config.API.RateLimit)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		t.Run("Missing Keys Keep Defaults", func(t *testing.T) {
			if config.Dashboard.RecentLimit != 6 {
				t.Errorf("expected default recent limit, got %d", config.Dashboard.RecentLimit)
			}
			if config.Web.URL != "http://127.0.0.1:8502" {
				t.Errorf("expected default web url, got %s", config.Web.URL)
			}
		})
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		dir := t.TempDir()

		t.Run("Missing File", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(dir, "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("Bad TOML", func(t *testing.T) {
			p := filepath.Join(dir, "bad.toml")
			os.WriteFile(p, []byte("[api\nbase_url ="), 0644)
			if _, err := LoadConfig(p); err == nil {
				t.Error("expected parse error")
			}
		})

		t.Run("Empty Base URL", func(t *testing.T) {
			p := filepath.Join(dir, "empty.toml")
			os.WriteFile(p, []byte("[api]\nbase_url = \"\"\n"), 0644)
			if _, err := LoadConfig(p); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			EnvAPIURL:    "http://api.internal:9000/",
			EnvPassword:  "hunter2",
			EnvDBPath:    "/tmp/other.db",
			EnvLogLevel:  "debug",
			EnvRateLimit: "4",
		}
		lookup := func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		}

		config := DefaultConfig()
		if err := config.ApplyEnv(lookup); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.API.BaseURL != "http://api.internal:9000" {
			t.Errorf("expected trailing slash trimmed, got %s", config.API.BaseURL)
		}
		if config.Password != "hunter2" {
			t.Errorf("expected password from env, got %q", config.Password)
		}
		if config.Database.Path != "/tmp/other.db" {
			t.Errorf("expected db path from env, got %s", config.Database.Path)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %s", config.Log.Level)
		}
		if config.API.RateLimit != 4 {
			t.Errorf("expected rate limit 4, got %v", config.API.RateLimit)
		}

		t.Run("Invalid Values", func(t *testing.T) {
			for _, kv := range [][2]string{{EnvLogLevel, "loud"}, {EnvRateLimit, "fast"}, {EnvRateLimit, "-1"}} {
				config := DefaultConfig()
				err := config.ApplyEnv(func(k string) (string, bool) {
					if k == kv[0] {
						return kv[1], true
					}
					return "", false
				})
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("%s=%s: expected ErrInvalidConfig, got %v", kv[0], kv[1], err)
				}
			}
		})
	})

	t.Run("LoadDotEnv", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, ".env")
		if err := os.WriteFile(p, []byte("NBX_TEST_DOTENV=from-file\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("NBX_TEST_DOTENV") })

		if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
			t.Errorf("missing files should be ignored, got %v", err)
		}
		if err := LoadDotEnv(p); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := os.Getenv("NBX_TEST_DOTENV"); got != "from-file" {
			t.Errorf("expected variable loaded from .env, got %q", got)
		}
	})
}
