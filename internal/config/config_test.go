package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "CONDA", cfg.Sandbox.ReservedPrefix)
	assert.Equal(t, "CONDARC", cfg.Sandbox.ConfigVar)
	assert.Equal(t, "condarc-bootconda", cfg.Sandbox.ConfigFile)
	assert.Equal(t, []string{"defaults"}, cfg.Channels.Default)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
prefix: /opt/bootconda
installer:
  base_url: https://mirror.example/miniconda/
channels:
  default: [conda-forge, defaults]
log:
  level: debug
command_timeout: 90s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/bootconda", cfg.Prefix)
	assert.Equal(t, "https://mirror.example/miniconda/", cfg.Installer.BaseURL)
	assert.Equal(t, []string{"conda-forge", "defaults"}, cfg.Channels.Default)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 90*time.Second, cfg.CommandTimeout.Std())
	assert.Equal(t, "CONDARC", cfg.Sandbox.ConfigVar, "unset keys keep defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "prefix: /from/file\n")
	t.Setenv("BOOTCONDA_PREFIX", "/from/env")
	t.Setenv("BOOTCONDA_INSTALLER_BASE_URL", "https://env.example/")
	t.Setenv("BOOTCONDA_CHANNELS_DEFAULT", "conda-forge,bioconda")
	t.Setenv("BOOTCONDA_COMMAND_TIMEOUT", "2m")
	t.Setenv("BOOTCONDA_UNKNOWN_KEY", "ignored")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Prefix)
	assert.Equal(t, "https://env.example/", cfg.Installer.BaseURL)
	assert.Equal(t, []string{"conda-forge", "bioconda"}, cfg.Channels.Default)
	assert.Equal(t, 2*time.Minute, cfg.CommandTimeout.Std())
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, "command_timeout: soon\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "prefix: [unclosed\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Installer.BaseURL = "ftp://nope"
	cfg.Installer.SHA256 = "abc"
	cfg.Sandbox.ConfigFile = "etc/condarc"
	cfg.Log.Level = "loud"
	cfg.CommandTimeout = Duration(-time.Second)

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"installer.base_url", "installer.sha256", "sandbox.config_file", "log.level", "command_timeout"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Prefix = "/opt/conda"
	cfg.CommandTimeout = Duration(30 * time.Second)

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "command_timeout: 30s")

	loaded, err := Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvKeys(t *testing.T) {
	keys := EnvKeys()
	assert.Equal(t, "installer.base_url", keys["BOOTCONDA_INSTALLER_BASE_URL"])
	assert.Equal(t, "sandbox.reserved_prefix", keys["BOOTCONDA_SANDBOX_RESERVED_PREFIX"])
	assert.Equal(t, "command_timeout", keys["BOOTCONDA_COMMAND_TIMEOUT"])
}
