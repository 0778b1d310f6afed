package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewModes(t *testing.T) {
	dev, err := New("dev")
	require.NoError(t, err)
	assert.True(t, dev.SugaredLogger.Desugar().Core().Enabled(zapcore.DebugLevel))

	prod, err := New("Production")
	require.NoError(t, err)
	assert.False(t, prod.SugaredLogger.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.SugaredLogger.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestWithKeepsParent(t *testing.T) {
	log := Nop()
	child := log.With("component", "test")
	assert.NotSame(t, log, child)
	child.Info("ignored", "key", "value")
	log.Sync()
}
