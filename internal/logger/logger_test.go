package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(Config{Level: "info", Output: &buf}), "playback")

	log.Debug().Msg("hidden")
	log.Info().Int("index", 4).Msg("seek")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["component"] != "playback" || entry["service"] != "lector" || entry["message"] != "seek" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "chatty", Output: &buf})
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lector.log")
	log, closer, err := OpenFile(path, Config{Level: "debug"})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	log.Debug().Msg("written")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "written") {
		t.Errorf("log file missing entry: %q", data)
	}
}
