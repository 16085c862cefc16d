package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

type ChatConfig struct {
	// Reasoning is a fixed per-client policy passed on every send; the UI
	// exposes no control for it.
	Reasoning    bool `json:"reasoning"`
	HistoryLimit int  `json:"history_limit"`
}

type UIConfig struct {
	Theme    string `json:"theme"`
	Markdown bool   `json:"markdown"`
}

type StorageConfig struct {
	BaseDir string `json:"base_dir"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Config struct {
	Server  ServerConfig  `json:"server"`
	Chat    ChatConfig    `json:"chat"`
	UI      UIConfig      `json:"ui"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
}

type fileChatConfig struct {
	Reasoning    *bool `json:"reasoning"`
	HistoryLimit *int  `json:"history_limit"`
}

type fileUIConfig struct {
	Theme    *string `json:"theme"`
	Markdown *bool   `json:"markdown"`
}

type fileConfig struct {
	Server  *ServerConfig   `json:"server"`
	Chat    *fileChatConfig `json:"chat"`
	UI      *fileUIConfig   `json:"ui"`
	Storage *StorageConfig  `json:"storage"`
	Logging *LoggingConfig  `json:"logging"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:   "http://localhost:8000",
			TimeoutMS: 30000,
		},
		Chat: ChatConfig{
			Reasoning:    false,
			HistoryLimit: 50,
		},
		UI: UIConfig{
			Theme:    "auto",
			Markdown: true,
		},
		Storage: StorageConfig{
			BaseDir: "~/.memochat",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration: defaults, then the global config
// file, then the project config file (or an explicit path), then environment
// overrides. A .env file in the working directory is read first so its
// variables participate in the env pass.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("MEMOCHAT_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

// StateDBPath is the SQLite file holding token and UI state.
func (c Config) StateDBPath() string {
	return filepath.Join(c.Storage.BaseDir, "state.db")
}

// LogFilePath resolves the log destination, defaulting under the state dir.
func (c Config) LogFilePath() string {
	if strings.TrimSpace(c.Logging.File) != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Storage.BaseDir, "memochat.log")
}

// HistoryFilePath is the readline history file for the plain REPL.
func (c Config) HistoryFilePath() string {
	return filepath.Join(c.Storage.BaseDir, "repl_history")
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".memochat", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		"memochat.config.json",
		".memochat/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Server != nil {
		if strings.TrimSpace(fc.Server.BaseURL) != "" {
			cfg.Server.BaseURL = fc.Server.BaseURL
		}
		if fc.Server.TimeoutMS > 0 {
			cfg.Server.TimeoutMS = fc.Server.TimeoutMS
		}
	}
	if fc.Chat != nil {
		if fc.Chat.Reasoning != nil {
			cfg.Chat.Reasoning = *fc.Chat.Reasoning
		}
		if fc.Chat.HistoryLimit != nil {
			cfg.Chat.HistoryLimit = *fc.Chat.HistoryLimit
		}
	}
	if fc.UI != nil {
		if fc.UI.Theme != nil && strings.TrimSpace(*fc.UI.Theme) != "" {
			cfg.UI.Theme = *fc.UI.Theme
		}
		if fc.UI.Markdown != nil {
			cfg.UI.Markdown = *fc.UI.Markdown
		}
	}
	if fc.Storage != nil {
		if strings.TrimSpace(fc.Storage.BaseDir) != "" {
			cfg.Storage.BaseDir = fc.Storage.BaseDir
		}
	}
	if fc.Logging != nil {
		if strings.TrimSpace(fc.Logging.Level) != "" {
			cfg.Logging.Level = fc.Logging.Level
		}
		if strings.TrimSpace(fc.Logging.File) != "" {
			cfg.Logging.File = fc.Logging.File
		}
	}
}

func normalize(cfg *Config) error {
	cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Server.BaseURL), "/")
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = Default().Server.BaseURL
	}
	if cfg.Server.TimeoutMS <= 0 {
		cfg.Server.TimeoutMS = Default().Server.TimeoutMS
	}
	if cfg.Chat.HistoryLimit <= 0 {
		cfg.Chat.HistoryLimit = Default().Chat.HistoryLimit
	}
	if strings.TrimSpace(cfg.UI.Theme) == "" {
		cfg.UI.Theme = Default().UI.Theme
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = Default().Logging.Level
	}

	baseDir, err := expandPath(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}
	if baseDir == "" {
		baseDir, err = expandPath(Default().Storage.BaseDir)
		if err != nil {
			return err
		}
	}
	cfg.Storage.BaseDir = baseDir

	if strings.TrimSpace(cfg.Logging.File) != "" {
		logFile, err := expandPath(cfg.Logging.File)
		if err != nil {
			return err
		}
		cfg.Logging.File = logFile
	}
	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("MEMOCHAT_SERVER_URL")); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("MEMOCHAT_TIMEOUT_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MEMOCHAT_TIMEOUT_MS: %q", v)
		}
		cfg.Server.TimeoutMS = n
	}
	if v := strings.TrimSpace(os.Getenv("MEMOCHAT_HISTORY_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MEMOCHAT_HISTORY_LIMIT: %q", v)
		}
		cfg.Chat.HistoryLimit = n
	}
	if v := strings.TrimSpace(os.Getenv("MEMOCHAT_STATE_DIR")); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv("MEMOCHAT_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, normalize(&cfg)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
