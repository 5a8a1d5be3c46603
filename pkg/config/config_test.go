package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.False(t, cfg.Compliance.CacheEnabled)
	assert.Equal(t, 3, cfg.Compliance.RetrainingTargetLevel)
	assert.Equal(t, 50, cfg.Import.DetailLimit)
	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RETRAINING_TARGET_LEVEL", "4")
	t.Setenv("ALLOWED_ORIGINS", "http://a.local, http://b.local ,")
	t.Setenv("JWT_EXPIRATION", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Compliance.RetrainingTargetLevel)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
