package config

import (
	"testing"
	"time"

	"github.com/simonhull/heron/pkg/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), FileName)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/heron.yml", []byte(`
msbuild:
  configuration: Release
  max_parallelism: 4
  evaluation_timeout: 30s
  primary_target_framework: net8.0
  properties:
    DefineConstants: TRACE;CI
log:
  level: debug
`), 0o644))

	cfg, err := Load(fs, "/work/heron.yml")
	require.NoError(t, err)

	assert.Equal(t, "Release", cfg.MSBuild.Configuration)
	assert.Equal(t, 4, cfg.MSBuild.MaxParallelism)
	assert.Equal(t, "net8.0", cfg.MSBuild.PrimaryTargetFramework)
	assert.Equal(t, map[string]string{"DefineConstants": "TRACE;CI"}, cfg.MSBuild.Properties)

	timeout, err := cfg.MSBuild.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)

	level, err := cfg.Log.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, logger.LevelDebug, level)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "heron.yml", []byte("msbuild:\n  configuration: Release\n"), 0o644))
	t.Setenv("HERON_MSBUILD_CONFIGURATION", "Staging")
	t.Setenv("HERON_LOG_LEVEL", "error")

	cfg, err := Load(fs, "heron.yml")
	require.NoError(t, err)
	assert.Equal(t, "Staging", cfg.MSBuild.Configuration)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "heron.yml", []byte(`
msbuild:
  max_parallelism: 0
  evaluation_timeout: soon
log:
  level: loud
`), 0o644))

	_, err := Load(fs, "heron.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_parallelism")
	assert.Contains(t, err.Error(), "evaluation_timeout")
	assert.Contains(t, err.Error(), "loud")
}

func TestLoad_MalformedYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "heron.yml", []byte("msbuild: [unterminated"), 0o644))

	_, err := Load(fs, "heron.yml")
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.MSBuild.Platform = "x64"
	cfg.MSBuild.Properties["LangVersion"] = "latest"

	require.NoError(t, Save(fs, "heron.yml", cfg))

	loaded, err := Load(fs, "heron.yml")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate_PropertyNames(t *testing.T) {
	cfg := Default()
	cfg.MSBuild.Properties["Bad Name"] = "x"
	assert.ErrorContains(t, cfg.Validate(), `"Bad Name"`)

	cfg = Default()
	cfg.MSBuild.EvaluationTimeout = "-1s"
	assert.ErrorContains(t, cfg.Validate(), "must be positive")
}
