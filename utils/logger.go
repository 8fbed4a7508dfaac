package utils

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides leveled, printf-style logging throughout the application.
// Console output goes to stdout; an optional rotating JSON file mirrors it.
type Logger struct {
	sugar *zap.SugaredLogger
	file  *lumberjack.Logger
}

// LoggerOption customises NewLogger.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	level zapcore.Level
	file  string
}

// WithLevel sets the minimum level ("debug", "info", "warn", "error").
// Unknown names fall back to info.
func WithLevel(level string) LoggerOption {
	return func(o *loggerOptions) {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(strings.ToLower(level))); err == nil {
			o.level = l
		}
	}
}

// WithFile additionally writes JSON log lines to a size-rotated file.
func WithFile(path string) LoggerOption {
	return func(o *loggerOptions) { o.file = path }
}

// NewLogger creates a new Logger writing to stdout.
func NewLogger(opts ...LoggerOption) *Logger {
	o := loggerOptions{level: zapcore.InfoLevel}
	for _, opt := range opts {
		opt(&o)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(os.Stdout)), o.level),
	}

	l := &Logger{}
	if o.file != "" {
		l.file = &lumberjack.Logger{
			Filename:  o.file,
			MaxSize:   200,
			LocalTime: true,
			Compress:  true,
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(l.file), o.level))
	}

	l.sugar = zap.New(zapcore.NewTee(cores...)).Sugar()
	return l
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

// Sync flushes buffered entries and closes the log file, if any.
func (l *Logger) Sync() error {
	_ = l.sugar.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
