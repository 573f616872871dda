package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("server defaults", func(t *testing.T) {
		if cfg.Server.Port != 8080 {
			t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
		}
		if cfg.Server.PortAttempts != 10 {
			t.Errorf("Expected 10 port attempts, got %d", cfg.Server.PortAttempts)
		}
		if cfg.Server.RequestTimeoutMs != 15000 {
			t.Errorf("Expected request timeout 15000ms, got %d", cfg.Server.RequestTimeoutMs)
		}
		if cfg.Server.CORS.Enabled {
			t.Error("Expected CORS to be disabled by default")
		}
	})
	t.Run("capture defaults", func(t *testing.T) {
		if cfg.Capture.JPEGQuality != 50 {
			t.Errorf("Expected JPEG quality 50, got %d", cfg.Capture.JPEGQuality)
		}
		if cfg.Capture.Scale != 1.0 {
			t.Errorf("Expected scale 1.0, got %g", cfg.Capture.Scale)
		}
	})
	t.Run("storage defaults", func(t *testing.T) {
		if cfg.Storage.Type != "memory" {
			t.Errorf("Expected memory storage, got %q", cfg.Storage.Type)
		}
		if cfg.Storage.MaxEntries != 1000 {
			t.Errorf("Expected 1000 max entries, got %d", cfg.Storage.MaxEntries)
		}
	})
	t.Run("validates", func(t *testing.T) {
		if err := cfg.Validate(); err != nil {
			t.Errorf("Expected defaults to validate, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server.port 70000"},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeoutMs = 0 }, "server.request_timeout_ms must be positive"},
		{"quality", func(c *Config) { c.Capture.JPEGQuality = 0 }, "capture.jpeg_quality must be within 1..100, got 0"},
		{"scale", func(c *Config) { c.Capture.Scale = 1.5 }, "capture.scale must be within (0, 1], got 1.5"},
		{"surface", func(c *Config) { c.Overlay.Surface = "toast" }, `unsupported overlay.surface "toast"`},
		{"storage", func(c *Config) { c.Storage.Type = "mongo" }, `unsupported storage.type "mongo"`},
		{"telegram", func(c *Config) { c.Notify.Telegram.Enabled = true }, "notify.telegram.token is required when telegram is enabled"},
		{"unknown key action", func(c *Config) {
			c.Overlay.Keybindings = map[string]KeyBindingEntry{"fly": {Keys: []string{"f"}}}
		}, `unknown keybinding action "fly"`},
		{"key conflict", func(c *Config) {
			c.Overlay.Keybindings = map[string]KeyBindingEntry{ActionChoose: {Keys: []string{"esc"}}}
		}, `conflicting keybindings: "esc" (choose, dismiss)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Expected error %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	content := `server:
  port: 9090
storage:
  type: sqlite
  sqlite:
    path: /tmp/journal.db
overlay:
  keybindings:
    hold:
      enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPERATOR_CAPTURE_JPEG_QUALITY", "80")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090 from file, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.SQLite.Path != "/tmp/journal.db" {
		t.Errorf("Expected sqlite storage from file, got %+v", cfg.Storage)
	}
	if cfg.Capture.JPEGQuality != 80 {
		t.Errorf("Expected quality 80 from env, got %d", cfg.Capture.JPEGQuality)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host, got %q", cfg.Server.Host)
	}

	keys := ResolveKeybindings(cfg.Overlay.Keybindings)
	if keys[ActionHold] != nil {
		t.Errorf("Expected hold to be disabled, got %v", keys[ActionHold])
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg.Storage, DefaultConfig().Storage) {
		t.Errorf("Expected default storage, got %+v", cfg.Storage)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OPERATOR_STORAGE_TYPE", "mongo")

	_, err := Load(viper.New(), "")
	if err == nil || !strings.Contains(err.Error(), "unsupported storage.type") {
		t.Errorf("Expected storage validation error, got %v", err)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Socket.URL = "wss://controller.example"

	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "\t") {
		t.Error("Expected two-space indentation")
	}

	var decoded Config
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Socket.URL != cfg.Socket.URL {
		t.Errorf("Expected socket url to survive, got %q", decoded.Socket.URL)
	}
}

func TestResolveKeybindings(t *testing.T) {
	keys := ResolveKeybindings(map[string]KeyBindingEntry{
		ActionNext: {Keys: []string{"j"}},
		"unknown":  {Keys: []string{"x"}},
	})

	if !reflect.DeepEqual(keys[ActionNext], []string{"j"}) {
		t.Errorf("Expected override, got %v", keys[ActionNext])
	}
	if !reflect.DeepEqual(keys[ActionChoose], []string{"enter"}) {
		t.Errorf("Expected default choose key, got %v", keys[ActionChoose])
	}
	if _, ok := keys["unknown"]; ok {
		t.Error("Expected unknown action to be ignored")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
