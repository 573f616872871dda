package logger

import (
	"os"
	"path/filepath"
	"sync"

	zap "go.uber.org/zap"
	zapcore "go.uber.org/zap/zapcore"
)

// Options controls how the process logger is built
type Options struct {
	Verbose bool
	// File redirects output to a file instead of stderr when set
	File string
}

var (
	mu    sync.RWMutex
	base  = zap.NewNop()
	sugar = base.Sugar()
)

// Init builds the process-wide logger and installs it as the zap global
func Init(opts Options) error {
	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(os.Stderr)
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		sink = zapcore.AddSync(f)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, level)
	Set(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
	return nil
}

// Set replaces the process logger, mainly for tests
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
	zap.ReplaceGlobals(l)
}

// Get returns the process logger
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Close flushes buffered entries
func Close() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// Debug logs a debug message with alternating key/value pairs
func Debug(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Debugw(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infow(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Warnw(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Errorw(msg, args...)
}
