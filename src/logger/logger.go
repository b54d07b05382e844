package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// -----------------------------------------------------------------------------

// Logger provides named, leveled logging for one component, backed by zap.
type Logger struct {
	name string
	sl   *zap.SugaredLogger
}

var root *zap.Logger

// -----------------------------------------------------------------------------

// Init builds the process-wide zap core. Called once from main before any
// component logger is created; logFile may be empty for console-only output.
func Init(level string, logFile string) error {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "time"
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	cfg.OutputPaths = []string{"stdout"}
	if logFile != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logFile)
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	root = l
	return nil
}

// -----------------------------------------------------------------------------

// NewLogger returns a component logger writing through the shared core.
// Safe to call before Init (falls back to a development core), which keeps
// tests free of global setup.
func NewLogger(name string) *Logger {
	if root == nil {
		l, _ := zap.NewDevelopment()
		root = l
	}
	return &Logger{
		name: name,
		sl:   root.Named(name).WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

// -----------------------------------------------------------------------------

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARNING", "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// -----------------------------------------------------------------------------

func (l *Logger) Debug(format string, args ...interface{}) {
	l.sl.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

func (l *Logger) Info(format string, args ...interface{}) {
	l.sl.Infof(format, args...)
}

// -----------------------------------------------------------------------------

func (l *Logger) Warning(format string, args ...interface{}) {
	l.sl.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

func (l *Logger) Error(format string, args ...interface{}) {
	l.sl.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs at error level and exits the application. Reserved for
// startup failures that leave a component permanently unable to run.
func (l *Logger) Critical(format string, args ...interface{}) {
	l.sl.Errorf(format, args...)
	_ = root.Sync()
	os.Exit(1)
}

// -----------------------------------------------------------------------------

// Sync flushes buffered log entries. Called once on shutdown.
func Sync() {
	if root != nil {
		_ = root.Sync()
	}
}
