package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLevels(t *testing.T) {
	require.NoError(t, Init("debug", true))
	assert.True(t, Log().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("warn", false))
	assert.False(t, Log().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Log().Core().Enabled(zapcore.WarnLevel))

	assert.Error(t, Init("loud", false))
}

func TestSetLoggerReplacesGlobals(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	setLogger(zap.New(core))

	S().Infow("scanned", "images", 3)
	zap.L().Info("global")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "scanned", entries[0].Message)
	assert.Equal(t, int64(3), entries[0].ContextMap()["images"])
	assert.Equal(t, "global", entries[1].Message)
	Sync()
}
