package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, 30*time.Minute, c.IdleTimeout)
	assert.Equal(t, time.Minute, c.ActivityCheckInterval)
	assert.Equal(t, time.Second, c.ActivityDebounce)
	assert.Equal(t, 6, c.OTPLength)
	assert.Equal(t, 60*time.Second, c.OTPResendCooldown)
	assert.Equal(t, 8, c.MinPasswordLength)
	assert.Equal(t, "cuponcode_session", c.SessionKey)
	assert.Equal(t, StorageSQLite, c.StorageBackend)
	assert.Zero(t, c.RequestsPerSecond)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Chdir(t.TempDir())

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *cfg)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	dir := t.TempDir()
	t.Chdir(dir)

	path := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"api_url":      "https://json.example/exec",
		"idle_timeout": "20m",
	})
	t.Setenv("CUPONCODE_API_URL", "https://env.example/exec")
	t.Setenv("CUPONCODE_IDLE_TIMEOUT", "10m")
	t.Setenv("CUPONCODE_OTP_LENGTH", "4")

	os.Args = []string{"testbin", "-c", path, "-i", "300"}
	cfg := LoadConfig()

	assert.Equal(t, "https://json.example/exec", cfg.APIURL, "json over env")
	assert.Equal(t, 5*time.Minute, cfg.IdleTimeout, "flags over json")
	assert.Equal(t, 4, cfg.OTPLength, "env over defaults")
}
