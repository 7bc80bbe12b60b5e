package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger writes JSON logs to logDir/deviceping.log with rotation.
func NewLogger(logDir string) (*zap.Logger, error) {
	return newLogger(logDir, zap.InfoLevel, nil)
}

// NewCLILogger also echoes warnings and errors to stderr.
func NewCLILogger(logDir string) (*zap.Logger, error) {
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zap.WarnLevel,
	)
	return newLogger(logDir, zap.DebugLevel, console)
}

func newLogger(logDir string, level zapcore.Level, extra zapcore.Core) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "deviceping.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level)
	if extra != nil {
		core = zapcore.NewTee(core, extra)
	}
	return zap.New(core), nil
}
