package discovery

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/simonhull/heron/pkg/exec"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/spf13/afero"
	"golang.org/x/mod/semver"
)

// MinimumVersion is the oldest SDK whose MSBuild supports -getProperty/-getItem
const MinimumVersion = "8.0.100"

// GlobalJSON is the file that pins an SDK version for a directory tree
const GlobalJSON = "global.json"

// SDK is one installed SDK as reported by `dotnet --list-sdks`
type SDK struct {
	Version string
	// Root is the directory holding all SDK versions, e.g. /usr/share/dotnet/sdk
	Root string
}

// Dir returns the directory of this SDK version
func (s SDK) Dir() string {
	return filepath.Join(s.Root, s.Version)
}

// Instance describes the installation used to evaluate projects
type Instance struct {
	Name       string
	Version    string
	DotNetPath string
	// SDKPath is the selected SDK directory, e.g. /usr/share/dotnet/sdk/8.0.100
	SDKPath string
	// PropertyOverrides are global properties every evaluation receives
	PropertyOverrides map[string]string
	// Env is extra environment for engine processes
	Env []string
	// Pin is the version requested by global.json, if any
	Pin string
	// PinFile is the global.json that supplied Pin
	PinFile string
}

// SupportsEvaluation reports whether the instance can run property and item queries
func (i *Instance) SupportsEvaluation() bool {
	return compareVersions(i.Version, MinimumVersion) >= 0
}

// EnvValue returns the value of key in Env
func (i *Instance) EnvValue(key string) (string, bool) {
	for _, kv := range i.Env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

// Options configures a Locator
type Options struct {
	// DotNetPath is an explicit dotnet executable; empty searches PATH
	DotNetPath string
	Executor   *exec.Executor
	Fs         afero.Fs
	Logger     logger.Logger
}

// Locator finds the dotnet installation and SDK a project evaluates with
type Locator struct {
	dotnetPath string
	executor   *exec.Executor
	fs         afero.Fs
	logger     logger.Logger

	lookPath func(string) (string, error)
	getenv   func(string) string
}

// NewLocator creates a locator
func NewLocator(opts Options) *Locator {
	l := &Locator{
		dotnetPath: opts.DotNetPath,
		executor:   opts.Executor,
		fs:         opts.Fs,
		logger:     opts.Logger,
		lookPath:   osexec.LookPath,
		getenv:     os.Getenv,
	}
	if l.executor == nil {
		l.executor = exec.NewExecutor(nil)
	}
	if l.fs == nil {
		l.fs = afero.NewOsFs()
	}
	if l.logger == nil {
		l.logger = logger.NewSilentLogger()
	}
	return l
}

// DotNetPath returns the dotnet executable the locator runs
func (l *Locator) DotNetPath() (string, error) {
	if l.dotnetPath != "" {
		return l.dotnetPath, nil
	}
	path, err := l.lookPath("dotnet")
	if err != nil {
		return "", fmt.Errorf("dotnet not found on PATH (set msbuild.dotnet_path in heron.yml): %w", err)
	}
	return path, nil
}

// ListSDKs returns the installed SDKs, oldest first
func (l *Locator) ListSDKs(ctx context.Context) ([]SDK, error) {
	dotnet, err := l.DotNetPath()
	if err != nil {
		return nil, err
	}

	res, err := exec.NewGenericCommand(l.executor, dotnet).
		WithArgs("--list-sdks").
		WithEnv("DOTNET_NOLOGO=1", "DOTNET_CLI_TELEMETRY_OPTOUT=1").
		Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing SDKs: %w", err)
	}

	sdks := ParseSDKList(string(res.Stdout))
	if len(sdks) == 0 {
		return nil, fmt.Errorf("no SDKs reported by %s --list-sdks", dotnet)
	}
	return sdks, nil
}

// Locate selects the SDK used for projects under projectDir
func (l *Locator) Locate(ctx context.Context, projectDir string) (*Instance, error) {
	dotnet, err := l.DotNetPath()
	if err != nil {
		return nil, err
	}

	sdks, err := l.ListSDKs(ctx)
	if err != nil {
		return nil, err
	}

	pinFile, pin, err := FindGlobalJSON(l.fs, projectDir)
	if err != nil {
		return nil, err
	}

	sdk, exact := SelectSDK(sdks, pin)
	if pin != "" && !exact {
		l.logger.Warn("Pinned SDK not installed, using closest match",
			logger.F("pin", pin),
			logger.F("file", pinFile),
			logger.F("selected", sdk.Version))
	}

	inst := &Instance{
		Name:              ".NET SDK " + sdk.Version,
		Version:           sdk.Version,
		DotNetPath:        dotnet,
		SDKPath:           sdk.Dir(),
		PropertyOverrides: map[string]string{},
		Env:               []string{"DOTNET_ROOT=" + filepath.Dir(sdk.Root)},
		Pin:               pin,
		PinFile:           pinFile,
	}
	if v := l.getenv("MSBuildSDKsPath"); v != "" {
		inst.Env = append(inst.Env, "MSBuildSDKsPath="+v)
	}

	l.logger.Debug("Located SDK",
		logger.F("version", inst.Version),
		logger.F("path", inst.SDKPath))

	if !inst.SupportsEvaluation() {
		l.logger.Warn("SDK is too old to evaluate projects",
			logger.F("version", inst.Version),
			logger.F("minimum", MinimumVersion))
	}
	return inst, nil
}

// ParseSDKList parses `dotnet --list-sdks` output ("8.0.100 [/usr/share/dotnet/sdk]")
// and returns the SDKs sorted oldest first. Unparseable lines are skipped.
func ParseSDKList(out string) []SDK {
	var sdks []SDK
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		version, rest, ok := strings.Cut(line, " ")
		if !ok || !semver.IsValid("v"+version) {
			continue
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, "[") || !strings.HasSuffix(rest, "]") {
			continue
		}
		sdks = append(sdks, SDK{Version: version, Root: rest[1 : len(rest)-1]})
	}

	sort.SliceStable(sdks, func(i, j int) bool {
		return compareVersions(sdks[i].Version, sdks[j].Version) < 0
	})
	return sdks
}

// SelectSDK picks the SDK for a pinned version: the exact version, else the
// newest with the same major version, else the newest overall. An empty pin
// selects the newest. exact reports whether the pin matched exactly.
func SelectSDK(sdks []SDK, pin string) (sdk SDK, exact bool) {
	if len(sdks) == 0 {
		return SDK{}, false
	}

	sorted := append([]SDK(nil), sdks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareVersions(sorted[i].Version, sorted[j].Version) > 0
	})

	if pin == "" {
		return sorted[0], false
	}

	for _, s := range sorted {
		if s.Version == pin {
			return s, true
		}
	}

	major := semver.Major("v" + pin)
	for _, s := range sorted {
		if major != "" && semver.Major("v"+s.Version) == major {
			return s, false
		}
	}
	return sorted[0], false
}

type globalJSON struct {
	SDK struct {
		Version string `json:"version"`
	} `json:"sdk"`
}

// FindGlobalJSON walks up from dir to the nearest global.json and returns its
// path and SDK version. No file yields empty strings.
func FindGlobalJSON(fs afero.Fs, dir string) (path, version string, err error) {
	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}

	for {
		candidate := filepath.Join(dir, GlobalJSON)
		data, readErr := afero.ReadFile(fs, candidate)
		if readErr == nil {
			var doc globalJSON
			if err := json.Unmarshal(data, &doc); err != nil {
				return candidate, "", fmt.Errorf("parsing %s: %w", candidate, err)
			}
			return candidate, strings.TrimSpace(doc.SDK.Version), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", nil
		}
		dir = parent
	}
}

func compareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}
