package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"VOICEART_PORT", "LOG_MODE", "VOICEART_AUDIO_DIR", "VOICEART_HISTORY_DB",
	"VOICEART_RETENTION", "VOICEART_SWEEP_INTERVAL", "VOICEART_CAPTURE_DURATION",
	"VOICEART_ANALYSIS_RATE", "STABILITY_API_URL", "STABILITY_API_KEY",
	"STABILITY_ENGINE", "STABILITY_SEED", "STABILITY_STEPS", "STABILITY_CFG_SCALE",
	"STABILITY_WIDTH", "STABILITY_HEIGHT", "STABILITY_SAMPLES",
	"OLLAMA_URL", "OLLAMA_MODEL", "VOICEART_CONFIG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		// t.Setenv restores the previous value after the test.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, "audio_files", cfg.AudioDir)
	assert.Equal(t, "voiceart.db", cfg.HistoryDB)
	assert.Equal(t, time.Hour, cfg.RetentionMaxAge)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 10*time.Second, cfg.CaptureDuration)
	assert.Equal(t, 22050, cfg.AnalysisSampleRate)

	assert.Equal(t, "https://api.stability.ai", cfg.Stability.APIURL)
	assert.Empty(t, cfg.Stability.APIKey)
	assert.Equal(t, 42, cfg.Stability.Seed)
	assert.Equal(t, 30, cfg.Stability.Steps)
	assert.Equal(t, 8.0, cfg.Stability.CFGScale)
	assert.Equal(t, 512, cfg.Stability.Width)
	assert.Equal(t, 512, cfg.Stability.Height)
	assert.Equal(t, 1, cfg.Stability.Samples)

	assert.Empty(t, cfg.OllamaURL)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOICEART_PORT", "3000")
	t.Setenv("VOICEART_AUDIO_DIR", "/tmp/audio")
	t.Setenv("VOICEART_RETENTION", "30m")
	t.Setenv("STABILITY_API_KEY", "test-key-123")
	t.Setenv("STABILITY_CFG_SCALE", "7.5")
	t.Setenv("OLLAMA_URL", "http://localhost:11434")

	cfg := Load()

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "/tmp/audio", cfg.AudioDir)
	assert.Equal(t, 30*time.Minute, cfg.RetentionMaxAge)
	assert.Equal(t, "test-key-123", cfg.Stability.APIKey)
	assert.Equal(t, 7.5, cfg.Stability.CFGScale)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaURL)
}

func TestInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOICEART_PORT", "not-a-number")
	t.Setenv("VOICEART_SWEEP_INTERVAL", "soon")
	t.Setenv("STABILITY_CFG_SCALE", "high")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 8.0, cfg.Stability.CFGScale)
}

// --- YAML overlay ---

func TestLoadFileOverlaysOnlyPresentKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "voiceart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
retention_max_age: 2h
stability:
  steps: 50
  engine: sdxl
`), 0o644))

	cfg, err := LoadFile(path, Load())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.RetentionMaxAge)
	assert.Equal(t, 50, cfg.Stability.Steps)
	assert.Equal(t, "sdxl", cfg.Stability.Engine)
	assert.Equal(t, 42, cfg.Stability.Seed)
	assert.Equal(t, "audio_files", cfg.AudioDir)
}

func TestLoadFileErrors(t *testing.T) {
	base := Load()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), base)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1, 2"), 0o644))
	got, err := LoadFile(path, base)
	assert.Error(t, err)
	assert.Equal(t, base, got)
}

func TestFromEnvUsesConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audio_dir: /srv/clips\n"), 0o644))
	t.Setenv("VOICEART_CONFIG", path)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/srv/clips", cfg.AudioDir)
}
