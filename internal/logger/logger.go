// internal/logger/logger.go
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zap.Logger with the rotating file sink and the in-memory
// buffer the dashboard reads from.
type Logger struct {
	*zap.Logger
	recent  *RecentBuffer
	rotator *lumberjack.Logger
	level   zap.AtomicLevel
}

// New builds a logger that writes JSON to a rotating file, keeps the most
// recent entries in memory and optionally mirrors to the console.
func New(cfg Config) (*Logger, error) {
	def := DefaultConfig()
	if cfg.File == "" {
		cfg.File = def.File
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.RecentSize <= 0 {
		cfg.RecentSize = def.RecentSize
	}

	level, err := zap.ParseAtomicLevel(orDefault(cfg.Level, def.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	recent := NewRecentBuffer(cfg.RecentSize)
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level),
		NewRecentCore(recent, level),
	}
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(ConsoleEncoderConfig()),
			zapcore.Lock(os.Stdout),
			level,
		))
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...),
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		),
		recent:  recent,
		rotator: rotator,
		level:   level,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Recent returns the in-memory buffer of recent entries.
func (l *Logger) Recent() *RecentBuffer {
	return l.recent
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

// WithComponent tags every entry with the component name.
func (l *Logger) WithComponent(component string) *zap.Logger {
	return l.Named(component).With(zap.String("component", component))
}

// WithOperation creates a logger for a single operation with its own
// correlation id.
func (l *Logger) WithOperation(operation string) *zap.Logger {
	return l.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.New().String()),
		zap.Time("start_time", time.Now().UTC()),
	)
}

// Sync flushes buffered entries, ignoring the errors stdout and stderr
// return on terminals.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if err != nil && (err.Error() == "sync /dev/stdout: invalid argument" ||
		err.Error() == "sync /dev/stderr: inappropriate ioctl for device" ||
		err.Error() == "sync /dev/stdout: inappropriate ioctl for device") {
		return nil
	}
	return err
}

// Close syncs the logger and closes the rotating file.
func (l *Logger) Close() error {
	syncErr := l.Sync()
	if err := l.rotator.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return syncErr
}
