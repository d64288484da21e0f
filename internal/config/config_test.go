package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("LECTOR_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(tmp, "lector", "library.db"); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if cfg.SettingsDebounce != time.Second {
		t.Errorf("SettingsDebounce = %v, want 1s", cfg.SettingsDebounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmp)
	path := filepath.Join(tmp, "config.toml")
	content := `
log_level = "debug"
language = "French"
progress_interval = "10s"
listen_addr = ":9000"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("LECTOR_CONFIG", path)
	t.Setenv("LECTOR_LISTEN_ADDR", ":9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Language != "French" {
		t.Errorf("Language = %q, want French", cfg.Language)
	}
	if cfg.ProgressInterval != 10*time.Second {
		t.Errorf("ProgressInterval = %v, want 10s", cfg.ProgressInterval)
	}
	if cfg.ListenAddr != ":9100" {
		t.Errorf("ListenAddr = %q, env should win", cfg.ListenAddr)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	os.WriteFile(path, []byte("log_level = ["), 0644)
	t.Setenv("LECTOR_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.DBPath = "x.db"
	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown log level")
	}
}
