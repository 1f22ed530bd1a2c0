package config

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	AppLogger   *slog.Logger
	loggerInitM sync.Mutex
)

func ensureLogDir(path string) error {
	dir := path
	if filepath.Ext(path) != "" {
		dir = filepath.Dir(path)
	}
	return os.MkdirAll(dir, 0o755)
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

func buildLogger(logPath, level string) *slog.Logger {
	if strings.TrimSpace(logPath) == "" {
		logPath = "logs/app.log"
	}

	if err := ensureLogDir(logPath); err != nil {
		fmt.Printf("failed to create log directory: %v\n", err)
		return slog.Default()
	}

	// a directory gets the default file name
	if filepath.Ext(logPath) == "" {
		logPath = filepath.Join(logPath, "app.log")
	}

	lumberjackLogger := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	mw := io.MultiWriter(os.Stdout, lumberjackLogger)

	handler := slog.NewTextHandler(mw, &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	})

	logger := slog.New(handler)

	// route the standard library logger (gin, gorm) to the same sinks
	log.SetOutput(mw)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logger.Info("logger initialized", "path", logPath)
	return logger
}

func logSettingsFromConfig() (string, string) {
	if AppConfig == nil {
		return "logs/app.log", "info"
	}
	return strings.TrimSpace(AppConfig.Log.Path), AppConfig.Log.Level
}

// InitLogger rebuilds the global logger from the current config.
func InitLogger() *slog.Logger {
	loggerInitM.Lock()
	defer loggerInitM.Unlock()

	AppLogger = buildLogger(logSettingsFromConfig())
	return AppLogger
}

// EnsureLoggerInitialized returns AppLogger, building it on first use.
func EnsureLoggerInitialized() *slog.Logger {
	loggerInitM.Lock()
	defer loggerInitM.Unlock()

	if AppLogger != nil {
		return AppLogger
	}
	AppLogger = buildLogger(logSettingsFromConfig())
	return AppLogger
}
