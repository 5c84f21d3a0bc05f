package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewRespectsLevel(t *testing.T) {
	l, err := NewStderr("error")
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.WithRequest("abc", "chat").Core().Enabled(zapcore.ErrorLevel))
}

func TestGlobal(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	nop := NewNop()
	SetGlobal(nop)
	assert.Same(t, nop, Global())
}
