// Package logging owns the process-wide slog logger.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu        sync.RWMutex
	logger    *slog.Logger
	initOnce  sync.Once
	logCloser io.Closer
	discard   = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Init configures the global logger singleton. Console output goes to
// stderr so command output on stdout stays clean.
func Init(cfg config.LoggingConfig) (*slog.Logger, error) {
	initOnce.Do(func() {
		output, closer := buildOutput(cfg, os.Stderr)

		options := &slog.HandlerOptions{Level: parseLevel(cfg.Level), AddSource: true}
		var handler slog.Handler
		if strings.EqualFold(cfg.Format, "text") {
			handler = slog.NewTextHandler(output, options)
		} else {
			handler = slog.NewJSONHandler(output, options)
		}

		l := slog.New(handler)
		mu.Lock()
		logger = l
		logCloser = closer
		mu.Unlock()

		slog.SetDefault(l)
		log.SetFlags(0)
		log.SetOutput(slogWriter{logger: l})
	})

	return L(), nil
}

// L returns the configured logger, or a no-op logger if not initialized.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return discard
	}
	return logger
}

// Component returns L() tagged with a component attribute.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Close flushes and closes any logger resources.
func Close() error {
	mu.Lock()
	closer := logCloser
	logCloser = nil
	mu.Unlock()
	if closer != nil {
		return closer.Close()
	}
	return nil
}

type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}
	w.logger.Info(msg)
	return len(p), nil
}

func buildOutput(cfg config.LoggingConfig, console io.Writer) (io.Writer, io.Closer) {
	if strings.TrimSpace(cfg.File) == "" {
		return console, nil
	}

	fileLogger := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}

	return io.MultiWriter(console, fileLogger), fileLogger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
