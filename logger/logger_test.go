package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, parseLevel(DebugLevel))
	require.Equal(t, zapcore.WarnLevel, parseLevel(WarnLevel))
	require.Equal(t, zapcore.ErrorLevel, parseLevel(ErrorLevel))
	require.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestHelpersWriteToGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := ReplaceForTest(zap.New(core))
	defer restore()

	Info("session built", String("source", "ml-service"), Int("matched", 3))
	Warn("recommender unavailable", String("outcome", "timeout"))

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "session built", entry.Message)
	require.Equal(t, "ml-service", entry.ContextMap()["source"])
	require.Equal(t, int64(3), entry.ContextMap()["matched"])
}

func TestLReturnsNopWhenUninitialised(t *testing.T) {
	restore := ReplaceForTest(nil)
	defer restore()

	require.NotNil(t, L())
	Info("dropped") // must not panic
}
