package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLogDir  = "logs"
	DefaultLogFile = "newsguard.log"
)

type Config struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// Logger owns the async sinks behind a logrus.Logger so they can be
// flushed on shutdown.
type Logger struct {
	*logrus.Logger
	file    *AsyncFileWriter
	console *AsyncConsoleHook
}

// NewLogger builds the JSON logger used by the server. LOG_LEVEL overrides
// cfg.Level. Without a file the logger writes to stdout directly.
func NewLogger(cfg Config) (*Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	l.SetLevel(parseLevel(cfg.Level))
	out := &Logger{Logger: l}

	if cfg.File == "" {
		l.SetOutput(os.Stdout)
		return out, nil
	}

	dir := cfg.Dir
	if dir == "" {
		dir = DefaultLogDir
	}
	logFile := filepath.Clean(filepath.Join(dir, cfg.File))
	if !strings.HasPrefix(logFile, filepath.Clean(dir)+string(filepath.Separator)) {
		return nil, fmt.Errorf("invalid log file path %q: must be inside %s", cfg.File, dir)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	writer, err := NewAsyncFileWriter(logFile, 32*1024)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}
	l.SetOutput(writer)
	out.file = writer

	if cfg.Console {
		out.console = NewAsyncConsoleHook(1000, os.Stdout)
		l.AddHook(out.console)
	}
	return out, nil
}

// Close drains pending entries. The logger must not be used afterwards.
func (l *Logger) Close() {
	if l.console != nil {
		l.console.Close()
	}
	if l.file != nil {
		l.file.Close()
	}
}

func parseLevel(level string) logrus.Level {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
