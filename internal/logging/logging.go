// Package logging builds the zap logger used by one codespectre invocation.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select the console level and the optional rolling log file.
type Options struct {
	Verbose bool
	Debug   bool

	// Console defaults to stderr.
	Console io.Writer

	// File enables a JSON log file rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Logger wraps the zap logger and closes the rolling file on Sync.
type Logger struct {
	*zap.Logger
	file *lumberjack.Logger
}

// New builds the logger. The console core logs warnings by default, info
// with Verbose and everything with Debug. The file core logs info and up.
func New(opts Options) (*Logger, error) {
	level := zap.WarnLevel
	switch {
	case opts.Debug:
		level = zap.DebugLevel
	case opts.Verbose:
		level = zap.InfoLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	if opts.Debug {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(console), level),
	}

	var file *lumberjack.Logger
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, err
		}
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		fileLevel := zap.InfoLevel
		if opts.Debug {
			fileLevel = zap.DebugLevel
		}
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(file), fileLevel))
	}

	zopts := []zap.Option{zap.AddStacktrace(zap.DPanicLevel)}
	if opts.Debug {
		zopts = append(zopts, zap.AddCaller())
	}
	return &Logger{Logger: zap.New(zapcore.NewTee(cores...), zopts...), file: file}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	_ = l.Logger.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
