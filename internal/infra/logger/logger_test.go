package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_Level(t *testing.T) {
	l, err := New("warn", "prod")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	//不正なレベルはinfo
	l, err = New("loud", "dev")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestSetGlobal(t *testing.T) {
	t.Cleanup(func() { SetGlobal(nil) })

	l := zap.NewExample()
	SetGlobal(l)
	assert.Same(t, l, L())

	SetGlobal(nil)
	assert.NotNil(t, L())
}
