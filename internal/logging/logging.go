package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Fields carries structured log fields.
type Fields map[string]any

// logger is the process-wide instance. It stays nil until Init succeeds, and
// every helper tolerates that so early startup code can log unconditionally.
var logger *slog.Logger

// Init opens the log file and installs a JSON logger at the given level.
// Logs go to a file only; the terminal belongs to the UI.
func Init(path, level string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	logLevel := slog.LevelByName(strings.ToLower(level))
	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h, err := handler.NewFileHandler(path, handler.WithLogLevels(levels))
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	formatter := slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
		f.Fields = []string{
			slog.FieldKeyDatetime,
			slog.FieldKeyLevel,
			slog.FieldKeyMessage,
		}
		f.Aliases = slog.StringMap{
			slog.FieldKeyDatetime: "datetime",
			slog.FieldKeyLevel:    "level",
			slog.FieldKeyMessage:  "message",
		}
		f.TimeFormat = "2006-01-02T15:04:05"
	})
	h.SetFormatter(formatter)

	logger = slog.NewWithHandlers(h)
	return nil
}

// Close flushes buffered records. Safe to call before Init.
func Close() {
	if logger != nil {
		logger.MustClose()
	}
}

func Debug(msg string) {
	if logger != nil {
		logger.Debug(msg)
	}
}

func Info(msg string) {
	if logger != nil {
		logger.Info(msg)
	}
}

func Warn(msg string) {
	if logger != nil {
		logger.Warn(msg)
	}
}

func Error(msg string) {
	if logger != nil {
		logger.Error(msg)
	}
}

func DebugWithFields(msg string, fields Fields) {
	if logger != nil {
		logger.WithFields(slog.M(fields)).Debug(msg)
	}
}

func InfoWithFields(msg string, fields Fields) {
	if logger != nil {
		logger.WithFields(slog.M(fields)).Info(msg)
	}
}

func WarnWithFields(msg string, fields Fields) {
	if logger != nil {
		logger.WithFields(slog.M(fields)).Warn(msg)
	}
}

func ErrorWithFields(msg string, fields Fields) {
	if logger != nil {
		logger.WithFields(slog.M(fields)).Error(msg)
	}
}
