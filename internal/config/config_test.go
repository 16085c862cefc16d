package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEMOCHAT_CONFIG_PATH", "")
	t.Setenv("MEMOCHAT_SERVER_URL", "")
	t.Setenv("MEMOCHAT_TIMEOUT_MS", "")
	t.Setenv("MEMOCHAT_HISTORY_LIMIT", "")
	t.Setenv("MEMOCHAT_STATE_DIR", "")
	t.Setenv("MEMOCHAT_LOG_LEVEL", "")
}

func TestLoad_Defaults(t *testing.T) {
	isolateHome(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Fatalf("BaseURL=%q", cfg.Server.BaseURL)
	}
	if cfg.Server.TimeoutMS != 30000 {
		t.Fatalf("TimeoutMS=%d", cfg.Server.TimeoutMS)
	}
	if cfg.Chat.Reasoning {
		t.Fatal("Reasoning should default to false")
	}
	if cfg.Chat.HistoryLimit != 50 {
		t.Fatalf("HistoryLimit=%d", cfg.Chat.HistoryLimit)
	}
	if !strings.HasSuffix(cfg.Storage.BaseDir, ".memochat") {
		t.Fatalf("BaseDir=%q", cfg.Storage.BaseDir)
	}
	if filepath.Base(cfg.StateDBPath()) != "state.db" {
		t.Fatalf("StateDBPath=%q", cfg.StateDBPath())
	}
	if filepath.Base(cfg.LogFilePath()) != "memochat.log" {
		t.Fatalf("LogFilePath=%q", cfg.LogFilePath())
	}
}

func TestLoad_FileWithComments(t *testing.T) {
	isolateHome(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		// server settings
		"server": {"base_url": "https://chat.example.com/", "timeout_ms": 5000},
		"chat": {"reasoning": true, "history_limit": 20},
		/* UI tweaks */
		"ui": {"theme": "dark"},
		"logging": {"level": "debug"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "https://chat.example.com" {
		t.Fatalf("BaseURL=%q, trailing slash should be trimmed", cfg.Server.BaseURL)
	}
	if cfg.Server.TimeoutMS != 5000 {
		t.Fatalf("TimeoutMS=%d", cfg.Server.TimeoutMS)
	}
	if !cfg.Chat.Reasoning {
		t.Fatal("Reasoning should be true")
	}
	if cfg.Chat.HistoryLimit != 20 {
		t.Fatalf("HistoryLimit=%d", cfg.Chat.HistoryLimit)
	}
	if cfg.UI.Theme != "dark" {
		t.Fatalf("Theme=%q", cfg.UI.Theme)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Level=%q", cfg.Logging.Level)
	}
	// Unset sections keep defaults.
	if !cfg.UI.Markdown {
		t.Fatal("Markdown should keep its default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("MEMOCHAT_SERVER_URL", "https://env.example.com")
	t.Setenv("MEMOCHAT_LOG_LEVEL", "warn")
	stateDir := t.TempDir()
	t.Setenv("MEMOCHAT_STATE_DIR", stateDir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "https://env.example.com" {
		t.Fatalf("BaseURL=%q", cfg.Server.BaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("Level=%q", cfg.Logging.Level)
	}
	if cfg.Storage.BaseDir != stateDir {
		t.Fatalf("BaseDir=%q, want %q", cfg.Storage.BaseDir, stateDir)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	isolateHome(t)
	t.Setenv("MEMOCHAT_TIMEOUT_MS", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid MEMOCHAT_TIMEOUT_MS")
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	isolateHome(t)

	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLogFilePath_ExplicitFile(t *testing.T) {
	cfg := Default()
	cfg.Storage.BaseDir = "/tmp/state"
	cfg.Logging.File = "/var/log/memochat.log"
	if got := cfg.LogFilePath(); got != "/var/log/memochat.log" {
		t.Fatalf("LogFilePath=%q", got)
	}
}
