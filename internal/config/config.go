// Package config loads lector's runtime configuration: built-in defaults,
// then an optional TOML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// Storage
	StateDir string `toml:"state_dir"`
	DBPath   string `toml:"db_path"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogPretty bool   `toml:"log_pretty"`
	LogFile   string `toml:"log_file"`

	// Definition and summary lookups
	AnthropicAPIKey  string `toml:"anthropic_api_key"`
	AnthropicModel   string `toml:"anthropic_model"`
	AnthropicBaseURL string `toml:"anthropic_base_url"`
	Language         string `toml:"language"`

	// Speech
	SpeechCommand string `toml:"speech_command"`

	// Session timing
	SettingsDebounce time.Duration `toml:"settings_debounce"`
	ProgressInterval time.Duration `toml:"progress_interval"`

	// HTTP API
	ListenAddr     string `toml:"listen_addr"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
}

// Defaults returns the configuration used when nothing overrides it. DBPath
// and LogFile are derived from StateDir by Load when left empty.
func Defaults() Config {
	return Config{
		StateDir:         StateDir(),
		LogLevel:         "info",
		AnthropicModel:   "claude-sonnet-4-5-20250929",
		AnthropicBaseURL: "https://api.anthropic.com",
		Language:         "English",
		SettingsDebounce: time.Second,
		ProgressInterval: 5 * time.Second,
		ListenAddr:       "127.0.0.1:8421",
		MaxUploadBytes:   50 << 20,
	}
}

// Load builds the configuration. A missing config file is not an error; a
// malformed one is.
func Load() (Config, error) {
	cfg := Defaults()

	path := envOr("LECTOR_CONFIG", filepath.Join(configDir(), "config.toml"))
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.StateDir = envOr("LECTOR_STATE_DIR", cfg.StateDir)
	cfg.DBPath = envOr("LECTOR_DB", cfg.DBPath)
	cfg.LogLevel = envOr("LECTOR_LOG_LEVEL", cfg.LogLevel)
	cfg.LogPretty = envBool("LECTOR_LOG_PRETTY", cfg.LogPretty)
	cfg.LogFile = envOr("LECTOR_LOG_FILE", cfg.LogFile)
	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.AnthropicBaseURL = envOr("ANTHROPIC_BASE_URL", cfg.AnthropicBaseURL)
	cfg.Language = envOr("LECTOR_LANGUAGE", cfg.Language)
	cfg.SpeechCommand = envOr("LECTOR_SPEECH_COMMAND", cfg.SpeechCommand)
	cfg.SettingsDebounce = envDuration("LECTOR_SETTINGS_DEBOUNCE", cfg.SettingsDebounce)
	cfg.ProgressInterval = envDuration("LECTOR_PROGRESS_INTERVAL", cfg.ProgressInterval)
	cfg.ListenAddr = envOr("LECTOR_LISTEN_ADDR", cfg.ListenAddr)
	cfg.MaxUploadBytes = envInt64("LECTOR_MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.StateDir, "library.db")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.StateDir, "lector.log")
	}
	if cfg.SettingsDebounce <= 0 {
		cfg.SettingsDebounce = time.Second
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 5 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// StateDir returns XDG_STATE_HOME/lector or ~/.local/state/lector
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "lector")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "lector")
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lector")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lector")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
