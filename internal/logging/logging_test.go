package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromFallsBackToRoot(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetRoot(zap.New(core))
	defer SetRoot(nil)

	From(context.Background()).Info("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
}

func TestSubFromAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := Context(context.Background(), zap.New(core))

	_, ctx = SubFrom(ctx, "generator")
	_, ctx = FromWithFields(ctx, zap.String("runId", "run_1"))
	From(ctx).Debug("started")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "generator", entry.LoggerName)
	assert.Equal(t, "run_1", entry.ContextMap()["runId"])
}

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)
	_, err = New("info", "xml")
	assert.Error(t, err)
}
