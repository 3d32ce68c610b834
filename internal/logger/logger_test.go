package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zap.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zap.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zap.InfoLevel, ParseLevel("nonsense"))
}

func TestNew(t *testing.T) {
	log, err := New("prod", "warn")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))

	dev, err := New("local", "debug")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zap.DebugLevel))
}
