package sdks

import (
	"path/filepath"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/discovery"
	"github.com/spf13/afero"
)

// EnvSdksPath is the variable MSBuild reads the SDKs directory from
const EnvSdksPath = "MSBuildSDKsPath"

// Source names where the SDKs directory came from
type Source string

const (
	SourceNone     Source = ""
	SourceOption   Source = "option"
	SourceEnv      Source = "environment"
	SourceInstance Source = "instance"
)

// Options configures a Resolver
type Options struct {
	// SdksPath overrides every other candidate
	SdksPath string
	Fs       afero.Fs
}

// Resolver holds the environment the engine needs for one installation.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	instance    discovery.Instance
	sdksPath    string
	source      Source
	diagnostics diagnostics.List
}

// NewResolver resolves the SDKs directory for inst. A resolver that finds no
// directory still works; it carries a ConfigurationError instead.
func NewResolver(inst *discovery.Instance, opts Options) *Resolver {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	r := &Resolver{}
	if inst != nil {
		r.instance = *inst
		r.instance.Env = append([]string(nil), inst.Env...)
		r.instance.PropertyOverrides = make(map[string]string, len(inst.PropertyOverrides))
		for k, v := range inst.PropertyOverrides {
			r.instance.PropertyOverrides[k] = v
		}
	}

	type candidate struct {
		path   string
		source Source
	}
	candidates := []candidate{{opts.SdksPath, SourceOption}}
	if v, ok := r.instance.EnvValue(EnvSdksPath); ok {
		candidates = append(candidates, candidate{v, SourceEnv})
	}
	if r.instance.SDKPath != "" {
		candidates = append(candidates, candidate{filepath.Join(r.instance.SDKPath, "Sdks"), SourceInstance})
	}

	for _, c := range candidates {
		if c.path == "" {
			continue
		}
		if ok, _ := afero.DirExists(fs, c.path); ok {
			r.sdksPath = filepath.Clean(c.path)
			r.source = c.source
			return r
		}
		r.diagnostics = append(r.diagnostics,
			diagnostics.New(diagnostics.ConfigurationError, "SDKs directory %s (%s) does not exist", c.path, c.source))
	}

	r.diagnostics = append(r.diagnostics,
		diagnostics.New(diagnostics.ConfigurationError, "no MSBuild SDKs directory found; evaluation uses the engine's defaults"))
	return r
}

// SdksPath returns the resolved SDKs directory, empty when unresolved
func (r *Resolver) SdksPath() string {
	return r.sdksPath
}

// Source reports which candidate supplied SdksPath
func (r *Resolver) Source() Source {
	return r.source
}

// DotNetPath returns the dotnet executable of the installation
func (r *Resolver) DotNetPath() string {
	if r.instance.DotNetPath == "" {
		return "dotnet"
	}
	return r.instance.DotNetPath
}

// Instance returns the installation the resolver was built from
func (r *Resolver) Instance() discovery.Instance {
	return r.instance
}

// PropertyOverrides returns the installation's global properties
func (r *Resolver) PropertyOverrides() map[string]string {
	out := make(map[string]string, len(r.instance.PropertyOverrides))
	for k, v := range r.instance.PropertyOverrides {
		out[k] = v
	}
	return out
}

// Env returns the environment entries for engine processes. Later entries win,
// so the resolved SDKs directory overrides one inherited from the instance.
func (r *Resolver) Env() []string {
	env := append([]string(nil), r.instance.Env...)
	if r.sdksPath != "" {
		env = append(env, EnvSdksPath+"="+r.sdksPath)
	}
	if r.instance.DotNetPath != "" {
		env = append(env, "DOTNET_HOST_PATH="+r.instance.DotNetPath)
	}
	return append(env,
		"DOTNET_CLI_TELEMETRY_OPTOUT=1",
		"DOTNET_NOLOGO=1",
		"DOTNET_SKIP_FIRST_TIME_EXPERIENCE=1",
		"DOTNET_CLI_UI_LANGUAGE=en",
	)
}

// Diagnostics returns one ConfigurationError per candidate that did not exist,
// plus one more when nothing resolved
func (r *Resolver) Diagnostics() diagnostics.List {
	return append(diagnostics.List(nil), r.diagnostics...)
}
