package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/chromectl/internal/defaults"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 9222, cfg.DebugPort)
	assert.Equal(t, "playwright", cfg.Driver)
	assert.Equal(t, 3*time.Second, cfg.LaunchDelay.Std())
	assert.Equal(t, 15*time.Second, cfg.ReadyTimeout.Std())
	assert.Equal(t, 60*time.Second, cfg.NavigateTimeout.Std())
	assert.Equal(t, 5, cfg.TabPoolSize)
	assert.False(t, cfg.WaitReady)
}

func TestEmbeddedDefaultParses(t *testing.T) {
	data, err := defaults.GetDefault(FileName)
	require.NoError(t, err)

	cfg, err := LoadFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 9222, cfg.DebugPort)
	assert.Equal(t, 3*time.Second, cfg.LaunchDelay.Std())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromBytes(t *testing.T) {
	t.Setenv("TEST_PROXY_PASS", "s3cret")

	cfg, err := LoadFromBytes([]byte(`
profile_dir: ~/profiles
debug_port: 9333
driver: cdp
launch_delay: 500ms
ready_timeout: 2
extra_args: ["--mute-audio"]
proxy:
  server: http://gw.dataimpulse.com:823
  username: user__cr.fr
  password: ${TEST_PROXY_PASS}
fingerprint:
  enabled: true
`))
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "profiles"), cfg.ProfileDir)
	assert.Equal(t, 9333, cfg.DebugPort)
	assert.Equal(t, "cdp", cfg.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.LaunchDelay.Std())
	assert.Equal(t, 2*time.Second, cfg.ReadyTimeout.Std())
	assert.Equal(t, 60*time.Second, cfg.NavigateTimeout.Std(), "unset keys keep defaults")
	assert.Equal(t, []string{"--mute-audio"}, cfg.ExtraArgs)
	assert.Equal(t, "s3cret", cfg.Proxy.Password)
	assert.True(t, cfg.Fingerprint.Enabled)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHROMECTL_PROFILE_DIR", "/tmp/override-profiles")
	t.Setenv("CHROMECTL_BROWSER", "/opt/brave/brave")

	cfg, err := LoadFromBytes([]byte("profile_dir: /somewhere/else\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override-profiles", cfg.ProfileDir)
	assert.Equal(t, "/opt/brave/brave", cfg.BrowserPath)
}

func TestValidate(t *testing.T) {
	_, err := LoadFromBytes([]byte("driver: selenium\n"))
	assert.Error(t, err)

	_, err = LoadFromBytes([]byte("debug_port: 70000\n"))
	assert.Error(t, err)

	_, err = LoadFromBytes([]byte("launch_delay: soon\n"))
	assert.Error(t, err)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CHROMECTL_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9222, cfg.DebugPort)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHROMECTL_DATA_DIR", dir)

	cfg := DefaultConfig()
	cfg.DebugPort = 9444
	cfg.LaunchDelay = Duration(time.Second)
	require.NoError(t, cfg.Save())

	loaded, err := LoadFrom(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, 9444, loaded.DebugPort)
	assert.Equal(t, time.Second, loaded.LaunchDelay.Std())
}
