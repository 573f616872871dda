package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	storage "github.com/inference-gateway/operator/internal/infra/storage"
	logger "github.com/inference-gateway/operator/internal/logger"
	viper "github.com/spf13/viper"
	gotenv "github.com/subosito/gotenv"
	yaml "gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is where the agent looks for its configuration file
	DefaultConfigPath = ".operator/config.yaml"
	// EnvPrefix prefixes every environment override, e.g. OPERATOR_SERVER_PORT
	EnvPrefix = "OPERATOR"
)

// Config represents the agent configuration
type Config struct {
	Server  ServerConfig          `yaml:"server" mapstructure:"server"`
	Capture CaptureConfig         `yaml:"capture" mapstructure:"capture"`
	Overlay OverlayConfig         `yaml:"overlay" mapstructure:"overlay"`
	Socket  SocketConfig          `yaml:"socket" mapstructure:"socket"`
	Storage storage.StorageConfig `yaml:"storage" mapstructure:"storage"`
	Notify  NotifyConfig          `yaml:"notify" mapstructure:"notify"`
	Device  DeviceConfig          `yaml:"device" mapstructure:"device"`
	Logging LoggingConfig         `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig contains the local command server settings
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	// PortAttempts is how many consecutive ports are tried when the base port is taken
	PortAttempts int    `yaml:"port_attempts" mapstructure:"port_attempts"`
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
	// APIKeyHash is a bcrypt hash accepted in place of a plaintext key
	APIKeyHash       string `yaml:"api_key_hash" mapstructure:"api_key_hash"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms" mapstructure:"request_timeout_ms"`
	ReadTimeout      int    `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout     int    `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout      int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`

	CORS CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// CaptureConfig contains screenshot encoding settings
type CaptureConfig struct {
	JPEGQuality int     `yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
	Scale       float64 `yaml:"scale" mapstructure:"scale"`
	ThrottleMs  int     `yaml:"throttle_ms" mapstructure:"throttle_ms"`
}

// OverlayConfig selects how transient feedback is rendered
type OverlayConfig struct {
	// Surface is "log" (headless) or "island" (terminal UI)
	Surface           string `yaml:"surface" mapstructure:"surface"`
	MessageDurationMs int    `yaml:"message_duration_ms" mapstructure:"message_duration_ms"`

	// Keybindings overrides island keys by action name
	Keybindings map[string]KeyBindingEntry `yaml:"keybindings,omitempty" mapstructure:"keybindings"`
}

// SocketConfig contains the persistent controller channel settings
type SocketConfig struct {
	URL              string `yaml:"url" mapstructure:"url"`
	Token            string `yaml:"token" mapstructure:"token"`
	UserInput        string `yaml:"user_input" mapstructure:"user_input"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms" mapstructure:"connect_timeout_ms"`
}

// NotifyConfig contains bot notification settings
type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram" mapstructure:"telegram"`
}

// TelegramConfig contains Telegram bot settings
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Token   string `yaml:"token" mapstructure:"token"`
	ChatID  int64  `yaml:"chat_id" mapstructure:"chat_id"`

	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// DeviceConfig selects the device backend
type DeviceConfig struct {
	// Provider is empty for auto-detection, or one of adb, x11, macos
	Provider string `yaml:"provider" mapstructure:"provider"`
	Serial   string `yaml:"serial" mapstructure:"serial"`
	Display  string `yaml:"display" mapstructure:"display"`
	ADBPath  string `yaml:"adb_path" mapstructure:"adb_path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Debug bool   `yaml:"debug" mapstructure:"debug"`
	File  string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			PortAttempts:     10,
			RequestTimeoutMs: 15000,
			ReadTimeout:      30,
			WriteTimeout:     30,
			IdleTimeout:      120,
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type"},
			},
		},
		Capture: CaptureConfig{
			JPEGQuality: 50,
			Scale:       1.0,
			ThrottleMs:  300,
		},
		Overlay: OverlayConfig{
			Surface:           "log",
			MessageDurationMs: 5000,
		},
		Socket: SocketConfig{
			ConnectTimeoutMs: 2000,
		},
		Storage: storage.StorageConfig{
			Type:       "memory",
			MaxEntries: 1000,
			JSONL: storage.JSONLConfig{
				Path: ".operator/journal",
			},
			SQLite: storage.SQLiteConfig{
				Path: ".operator/journal.db",
			},
			Postgres: storage.PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "operator",
				Username: "operator",
				SSLMode:  "disable",
			},
			Redis: storage.RedisConfig{
				Host: "localhost",
				Port: 6379,
			},
		},
		Notify: NotifyConfig{
			Telegram: TelegramConfig{
				MaxAttempts:      3,
				InitialBackoffMs: 500,
				MaxBackoffMs:     5000,
			},
		},
		Device: DeviceConfig{
			ADBPath: "adb",
		},
	}
}

// Load reads configuration from the given path, .env, and OPERATOR_* environment variables.
// A missing config file is not an error.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to load .env file", "error", err)
	}

	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		logger.Debug("Config file not found, using defaults", "path", configPath)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Loaded config", "path", configPath, "port", cfg.Server.Port, "storage", cfg.Storage.Type)
	return cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.port_attempts", d.Server.PortAttempts)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.api_key_hash", d.Server.APIKeyHash)
	v.SetDefault("server.request_timeout_ms", d.Server.RequestTimeoutMs)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.cors.enabled", d.Server.CORS.Enabled)
	v.SetDefault("server.cors.allowed_origins", d.Server.CORS.AllowedOrigins)
	v.SetDefault("server.cors.allowed_methods", d.Server.CORS.AllowedMethods)
	v.SetDefault("server.cors.allowed_headers", d.Server.CORS.AllowedHeaders)

	v.SetDefault("capture.jpeg_quality", d.Capture.JPEGQuality)
	v.SetDefault("capture.scale", d.Capture.Scale)
	v.SetDefault("capture.throttle_ms", d.Capture.ThrottleMs)

	v.SetDefault("overlay.surface", d.Overlay.Surface)
	v.SetDefault("overlay.message_duration_ms", d.Overlay.MessageDurationMs)

	v.SetDefault("socket.url", d.Socket.URL)
	v.SetDefault("socket.token", d.Socket.Token)
	v.SetDefault("socket.user_input", d.Socket.UserInput)
	v.SetDefault("socket.connect_timeout_ms", d.Socket.ConnectTimeoutMs)

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.max_entries", d.Storage.MaxEntries)
	v.SetDefault("storage.jsonl.path", d.Storage.JSONL.Path)
	v.SetDefault("storage.sqlite.path", d.Storage.SQLite.Path)
	v.SetDefault("storage.postgres.host", d.Storage.Postgres.Host)
	v.SetDefault("storage.postgres.port", d.Storage.Postgres.Port)
	v.SetDefault("storage.postgres.database", d.Storage.Postgres.Database)
	v.SetDefault("storage.postgres.username", d.Storage.Postgres.Username)
	v.SetDefault("storage.postgres.password", d.Storage.Postgres.Password)
	v.SetDefault("storage.postgres.ssl_mode", d.Storage.Postgres.SSLMode)
	v.SetDefault("storage.redis.host", d.Storage.Redis.Host)
	v.SetDefault("storage.redis.port", d.Storage.Redis.Port)
	v.SetDefault("storage.redis.database", d.Storage.Redis.Database)
	v.SetDefault("storage.redis.username", d.Storage.Redis.Username)
	v.SetDefault("storage.redis.password", d.Storage.Redis.Password)
	v.SetDefault("storage.redis.ttl", d.Storage.Redis.TTL)

	v.SetDefault("notify.telegram.enabled", d.Notify.Telegram.Enabled)
	v.SetDefault("notify.telegram.token", d.Notify.Telegram.Token)
	v.SetDefault("notify.telegram.chat_id", d.Notify.Telegram.ChatID)
	v.SetDefault("notify.telegram.max_attempts", d.Notify.Telegram.MaxAttempts)
	v.SetDefault("notify.telegram.initial_backoff_ms", d.Notify.Telegram.InitialBackoffMs)
	v.SetDefault("notify.telegram.max_backoff_ms", d.Notify.Telegram.MaxBackoffMs)

	v.SetDefault("device.provider", d.Device.Provider)
	v.SetDefault("device.serial", d.Device.Serial)
	v.SetDefault("device.display", d.Device.Display)
	v.SetDefault("device.adb_path", d.Device.ADBPath)

	v.SetDefault("logging.debug", d.Logging.Debug)
	v.SetDefault("logging.file", d.Logging.File)
}

// Validate checks value ranges that would otherwise fail deep inside a component
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.RequestTimeoutMs <= 0 {
		return fmt.Errorf("server.request_timeout_ms must be positive")
	}
	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		return fmt.Errorf("capture.jpeg_quality must be within 1..100, got %d", c.Capture.JPEGQuality)
	}
	if c.Capture.Scale <= 0 || c.Capture.Scale > 1 {
		return fmt.Errorf("capture.scale must be within (0, 1], got %g", c.Capture.Scale)
	}
	switch c.Overlay.Surface {
	case "log", "island":
	default:
		return fmt.Errorf("unsupported overlay.surface %q", c.Overlay.Surface)
	}
	if err := ValidateKeybindings(c.Overlay.Keybindings); err != nil {
		return err
	}
	switch c.Storage.Type {
	case "memory", "jsonl", "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("unsupported storage.type %q", c.Storage.Type)
	}
	if c.Notify.Telegram.Enabled && c.Notify.Telegram.Token == "" {
		return fmt.Errorf("notify.telegram.token is required when telegram is enabled")
	}
	return nil
}

// SaveConfig writes the configuration as YAML
func (c *Config) SaveConfig(configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush config: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	logger.Debug("Saved config", "path", configPath)
	return nil
}
