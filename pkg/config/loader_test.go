package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type testConfig struct {
	Server  serverConfig `yaml:"server"`
	Debug   bool         `yaml:"debug"`
	Targets []string     `yaml:"targets"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "0.0.0.0"
  port: 9090
debug: true
targets:
  - alpha
  - beta
`)

	var cfg testConfig
	require.NoError(t, Load(path, &cfg))

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Targets)
}

func TestLoadMissingFile(t *testing.T) {
	var cfg testConfig
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	require.Error(t, err)
}

func TestLoadWithEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "localhost"
  port: 8080
`)

	t.Setenv("SVCKIT_SERVER__PORT", "9999")
	t.Setenv("SVCKIT_DEBUG", "true")

	var cfg testConfig
	require.NoError(t, LoadWithEnv(path, "SVCKIT", &cfg))

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.Debug)
}

func TestLoadWithEnvOnly(t *testing.T) {
	t.Setenv("SVCKIT_SERVER__HOST", "envhost")

	var cfg testConfig
	require.NoError(t, LoadWithEnv("", "SVCKIT", &cfg))
	assert.Equal(t, "envhost", cfg.Server.Host)
}

func TestFileProviderReload(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 1000\n")

	provider, err := NewFileProvider[testConfig](path, "", nil)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	assert.Equal(t, 1000, provider.Current().Server.Port)

	updates := provider.Subscribe()
	first := <-updates
	assert.Equal(t, 1000, first.Server.Port)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 2000\n"), 0o644))

	select {
	case updated := <-updates:
		assert.Equal(t, 2000, updated.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config update")
	}
}

func TestFileProviderRejectsBrokenInitialConfig(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping\n")

	_, err := NewFileProvider[testConfig](path, "", nil)
	require.Error(t, err)
}
