package log

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelText(t *testing.T) {
	var level Level
	require.NoError(t, level.UnmarshalText([]byte("debug")))
	assert.Equal(t, LevelDebug, level)

	text, err := LevelError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error", string(text))
}

func TestNopLoggerLevels(t *testing.T) {
	logger := NewNop()
	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel())

	// Scoped loggers share the level with their parent
	scoped := logger.With(String("component", "test"))
	logger.SetLevel(LevelError)
	assert.Equal(t, LevelError, scoped.GetLevel())

	assert.NotPanics(t, func() {
		scoped.Info("ignored", Int("n", 1), Duration("d", time.Second), Error(errors.New("boom")))
		scoped.WithContext(ContextWithSessionID(context.Background(), "session-1")).Warn("ignored")
	})
}

func TestWithContextAddsSessionID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := &Logger{zapLogger: zap.New(core), zapLevel: zap.NewAtomicLevelAt(zap.DebugLevel)}

	logger.WithContext(ContextWithSessionID(context.Background(), "session-1")).Info("tagged")
	logger.WithContext(context.Background()).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "session-1", entries[0].ContextMap()["session_id"])
	assert.NotContains(t, entries[1].ContextMap(), "session_id")
}

func TestToZapFields(t *testing.T) {
	fields := toZapFields(
		Bool("b", true),
		Float64("f", 1.5),
		Int64("i", 7),
		Uint32("u", 3),
		Strings("s", []string{"a"}),
		Any("a", struct{}{}),
	)
	require.Len(t, fields, 6)
	assert.Equal(t, "b", fields[0].Key)
	assert.Equal(t, "a", fields[5].Key)
}
