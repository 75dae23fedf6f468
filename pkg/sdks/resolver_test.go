package sdks

import (
	"testing"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/discovery"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInstance() *discovery.Instance {
	return &discovery.Instance{
		Name:              ".NET SDK 8.0.100",
		Version:           "8.0.100",
		DotNetPath:        "/usr/share/dotnet/dotnet",
		SDKPath:           "/usr/share/dotnet/sdk/8.0.100",
		PropertyOverrides: map[string]string{"RoslynTargetsPath": "/roslyn"},
		Env:               []string{"DOTNET_ROOT=/usr/share/dotnet"},
	}
}

func TestNewResolver_Precedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/usr/share/dotnet/sdk/8.0.100/Sdks", 0o755))
	require.NoError(t, fs.MkdirAll("/env/Sdks", 0o755))
	require.NoError(t, fs.MkdirAll("/explicit/Sdks", 0o755))

	withEnv := testInstance()
	withEnv.Env = append(withEnv.Env, "MSBuildSDKsPath=/env/Sdks")

	tests := []struct {
		name       string
		inst       *discovery.Instance
		opts       Options
		wantPath   string
		wantSource Source
	}{
		{"instance sdk directory", testInstance(), Options{Fs: fs}, "/usr/share/dotnet/sdk/8.0.100/Sdks", SourceInstance},
		{"environment beats instance", withEnv, Options{Fs: fs}, "/env/Sdks", SourceEnv},
		{"option beats everything", withEnv, Options{Fs: fs, SdksPath: "/explicit/Sdks/"}, "/explicit/Sdks", SourceOption},
		{"missing option falls through", withEnv, Options{Fs: fs, SdksPath: "/nowhere"}, "/env/Sdks", SourceEnv},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.inst, tt.opts)
			assert.Equal(t, tt.wantPath, r.SdksPath())
			assert.Equal(t, tt.wantSource, r.Source())
		})
	}
}

func TestNewResolver_MissingOptionIsReported(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/usr/share/dotnet/sdk/8.0.100/Sdks", 0o755))

	r := NewResolver(testInstance(), Options{Fs: fs, SdksPath: "/nowhere"})

	diags := r.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.ConfigurationError, diags[0].Kind)
	assert.Contains(t, diags[0].Message, "/nowhere")
	assert.False(t, diags.HasErrors())
}

func TestNewResolver_Unresolved(t *testing.T) {
	r := NewResolver(testInstance(), Options{Fs: afero.NewMemMapFs()})

	assert.Empty(t, r.SdksPath())
	assert.Equal(t, SourceNone, r.Source())

	diags := r.Diagnostics()
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, diagnostics.ConfigurationError, d.Kind)
		assert.Equal(t, diagnostics.SeverityWarning, d.Severity)
	}

	for _, kv := range r.Env() {
		assert.NotContains(t, kv, EnvSdksPath+"=")
	}
}

func TestResolver_Env(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/usr/share/dotnet/sdk/8.0.100/Sdks", 0o755))

	inst := testInstance()
	inst.Env = append(inst.Env, "MSBuildSDKsPath=/stale")
	r := NewResolver(inst, Options{Fs: fs, SdksPath: "/usr/share/dotnet/sdk/8.0.100/Sdks"})

	env := r.Env()
	assert.Contains(t, env, "DOTNET_ROOT=/usr/share/dotnet")
	assert.Contains(t, env, "DOTNET_HOST_PATH=/usr/share/dotnet/dotnet")
	assert.Contains(t, env, "DOTNET_CLI_TELEMETRY_OPTOUT=1")
	assert.Contains(t, env, "DOTNET_NOLOGO=1")
	assert.Contains(t, env, "DOTNET_CLI_UI_LANGUAGE=en")

	// the resolved directory comes after the inherited one, so it wins
	stale := indexOf(env, "MSBuildSDKsPath=/stale")
	resolved := indexOf(env, "MSBuildSDKsPath=/usr/share/dotnet/sdk/8.0.100/Sdks")
	require.NotEqual(t, -1, resolved)
	assert.Less(t, stale, resolved)
}

func TestResolver_Immutable(t *testing.T) {
	inst := testInstance()
	r := NewResolver(inst, Options{Fs: afero.NewMemMapFs()})

	inst.DotNetPath = "/changed"
	inst.Env[0] = "DOTNET_ROOT=/changed"
	overrides := r.PropertyOverrides()
	overrides["RoslynTargetsPath"] = "/changed"

	assert.Equal(t, "/usr/share/dotnet/dotnet", r.DotNetPath())
	assert.Contains(t, r.Env(), "DOTNET_ROOT=/usr/share/dotnet")
	assert.Equal(t, "/roslyn", r.PropertyOverrides()["RoslynTargetsPath"])
}

func TestResolver_NilInstance(t *testing.T) {
	r := NewResolver(nil, Options{Fs: afero.NewMemMapFs()})

	assert.Equal(t, "dotnet", r.DotNetPath())
	assert.Empty(t, r.SdksPath())
	assert.Len(t, r.Diagnostics(), 1)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
