package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"model": "risk"})

	log.Info("training finished", map[string]interface{}{"rows": 40})
	log.WithError(errors.New("disk full")).Error("failed to write artifacts", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "risk", entries[0].ContextMap()["model"])
	assert.Equal(t, int64(40), entries[0].ContextMap()["rows"])
	assert.Equal(t, "disk full", entries[1].ContextMap()["error"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestNew_LevelFilter(t *testing.T) {
	l := New("warn", "json", "stderr")
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	assert.NotNil(t, NewStructured("debug", "console", "stderr"))
	NewNoOpLogger().Debug("dropped", nil)
}
