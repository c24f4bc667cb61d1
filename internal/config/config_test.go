package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetgo/sidekick-setup/internal/controller"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "User", cfg.Defaults.UserName)
	assert.Equal(t, "Sidekick", cfg.Defaults.SidekickName)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
store:
  driver: sqlite
  path: /tmp/sidekick.db
client:
  timeout: 3s
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, StoreConfig{Driver: "sqlite", Path: "/tmp/sidekick.db"}, cfg.Store)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "last-completion", cfg.Client.Ordering)
	assert.Equal(t, path, cfg.ConfigPath)
}

func TestLoadFileRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: redis\n"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestOrderingAgreesWithController(t *testing.T) {
	for _, ordering := range []string{"", "last-completion", "latest-request", "newest", "LAST-COMPLETION"} {
		cfg := Default()
		cfg.Client.Ordering = ordering

		_, parseErr := controller.ParseOrdering(ordering)
		assert.Equal(t, parseErr == nil, cfg.Validate() == nil, "ordering %q", ordering)
	}
}

func TestDefaultAppsConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "custom_code", cfg.Apps.Dir)
	assert.Contains(t, cfg.Apps.Preserved, "custom_code_button.py")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Defaults.SidekickName = "Robo"
	cfg.Display = DisplayConfig{Type: "network", Address: "10.0.0.5", Port: 9100}

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	loaded.ConfigPath = ""
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSearchesPaths(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "missing.yaml")
	second := filepath.Join(dir, "present.yaml")
	require.NoError(t, os.WriteFile(second, []byte("server:\n  port: 7000\n"), 0644))

	orig := SearchPaths
	SearchPaths = []string{first, second}
	t.Cleanup(func() { SearchPaths = orig })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, second, cfg.ConfigPath)
}
