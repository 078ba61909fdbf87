package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// teeInto mirrors everything the built logger writes into an observer.
func teeInto(logs zapcore.Core) zap.Option {
	return zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, logs)
	})
}

func TestNew_ProductionSkipsDebug(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	log, err := New(false, teeInto(obs))
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	log.Debug("dropped")
	log.Info("refresh cycle done", zap.Int("tickers", 12))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "swingdesk", logs.All()[0].ContextMap()["service"])
	assert.EqualValues(t, 12, logs.All()[0].ContextMap()["tickers"])
}

func TestNew_DevelopmentLogsDebug(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	log, err := New(true, teeInto(obs))
	require.NoError(t, err)

	log.Debug("fetching history", zap.String("ticker", "AAPL"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
}

func TestMust(t *testing.T) {
	assert.NotPanics(t, func() { Must(false).Sync() })
}
