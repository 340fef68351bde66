package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSecretKeys(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewCore(core)

	log.Info("calling stability", "api_key", "sk-live-123", "Authorization", "Bearer x", "engine", "sdxl")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, redacted, fields["api_key"])
	assert.Equal(t, redacted, fields["Authorization"])
	assert.Equal(t, "sdxl", fields["engine"])
}

func TestWithRedacts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewCore(core).With("refresh_token", "abc")

	log.Warn("retry")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, redacted, logs.All()[0].ContextMap()["refresh_token"])
}

func TestSanitizeKeepsDanglingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "orphan"})
	assert.Equal(t, []interface{}{"a", 1, "orphan"}, out)
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
	Nop().Info("discarded")
}
