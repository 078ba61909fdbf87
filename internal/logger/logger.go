// Package logger builds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the swingdesk logger. Development mode is a colourised console
// logger at debug level; otherwise JSON at info level with ISO8601 times.
// Every entry carries service=swingdesk.
func New(development bool, opts ...zap.Option) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	log, err := cfg.Build(opts...)
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("service", "swingdesk")), nil
}

// Must is New for main, where a broken logger config is fatal.
func Must(development bool, opts ...zap.Option) *zap.Logger {
	log, err := New(development, opts...)
	if err != nil {
		panic(err)
	}
	return log
}
