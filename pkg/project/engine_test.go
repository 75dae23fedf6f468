package project

import (
	"context"
	"encoding/xml"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/evaluation"
	"github.com/stretchr/testify/require"
)

// fixtureEngine stands in for `dotnet msbuild` on the fixture projects under
// testdata. It models only what heron reads: static properties from
// <PropertyGroup>, global property overrides, the SDK default Compile glob
// (or explicit <Compile> items for legacy projects) and the SDK's
// LangVersion default. Design-time requests also write the generated
// assembly info and attributes files under obj/ and report them as Compile
// items, and fail with
// MSB4057 on the outer evaluation of a multi-targeting project. Evaluation
// only requests see neither.
type fixtureEngine struct {
	mu    sync.Mutex
	calls []evaluation.Request

	fail  map[string]error
	delay map[string]time.Duration
}

type call struct {
	project string
	target  string
}

func (e *fixtureEngine) Calls() []call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]call, len(e.calls))
	for i, r := range e.calls {
		out[i] = call{project: filepath.Base(r.ProjectPath), target: r.TargetFramework}
	}
	return out
}

// EvaluationOnly returns the EvaluationOnly flag of every request, in order
func (e *fixtureEngine) EvaluationOnly() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]bool, len(e.calls))
	for i, r := range e.calls {
		out[i] = r.EvaluationOnly
	}
	return out
}

func (e *fixtureEngine) LastRequest() evaluation.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[len(e.calls)-1]
}

type fixtureProject struct {
	Sdk    string `xml:"Sdk,attr"`
	Groups []struct {
		Props []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	} `xml:"PropertyGroup"`
	Compile []struct {
		Include string `xml:"Include,attr"`
	} `xml:"ItemGroup>Compile"`
}

func (e *fixtureEngine) Evaluate(ctx context.Context, req evaluation.Request) (*evaluation.Result, error) {
	e.mu.Lock()
	e.calls = append(e.calls, req)
	e.mu.Unlock()

	if d := e.delay[req.TargetFramework]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := e.fail[req.TargetFramework]; err != nil {
		return nil, err
	}

	data, err := os.ReadFile(req.ProjectPath)
	if err != nil {
		return nil, &evaluation.Failure{
			ProjectPath: req.ProjectPath,
			Err:         err,
			Diagnostics: diagnostics.List{diagnostics.New(diagnostics.EvaluationError, "MSB1009: Project file does not exist.")},
		}
	}
	var proj fixtureProject
	if err := xml.Unmarshal(data, &proj); err != nil {
		return nil, &evaluation.Failure{ProjectPath: req.ProjectPath, Err: err}
	}

	dir := filepath.Dir(req.ProjectPath)
	props := map[string]string{}
	for _, g := range proj.Groups {
		for _, p := range g.Props {
			props[p.XMLName.Local] = strings.TrimSpace(p.Value)
		}
	}
	for _, p := range req.Properties.All() {
		props[p.Name] = p.Value
	}
	if req.TargetFramework != "" {
		props["TargetFramework"] = req.TargetFramework
	}
	if props["Configuration"] == "" {
		props["Configuration"] = "Debug"
	}
	if props["TargetFrameworkVersion"] != "" && props["TargetFrameworkIdentifier"] == "" {
		props["TargetFrameworkIdentifier"] = ".NETFramework"
	}
	props["MSBuildProjectDirectory"] = dir
	props["MSBuildProjectFullPath"] = req.ProjectPath

	if !req.EvaluationOnly && req.TargetFramework == "" && props["TargetFrameworks"] != "" {
		d := diagnostics.New(diagnostics.EvaluationError, "The target \"Compile\" does not exist in the project.")
		d.Code = evaluation.CodeTargetDoesNotExist
		return nil, &evaluation.Failure{ProjectPath: req.ProjectPath, Err: errEngine, Diagnostics: diagnostics.List{d}}
	}

	config, tf := props["Configuration"], props["TargetFramework"]
	out := `bin\` + config + `\`
	if tf != "" {
		out += tf + `\`
	}
	if _, ok := props["OutputPath"]; !ok {
		props["OutputPath"] = out
	}

	if proj.Sdk != "" && tf != "" {
		props["MaxSupportedLangVersion"] = maxLangVersion(tf)
		if props["LangVersion"] == "" {
			props["LangVersion"] = props["MaxSupportedLangVersion"]
		}
	}

	var compile []evaluation.Item
	if proj.Sdk == "" {
		for _, c := range proj.Compile {
			compile = append(compile, evaluation.NewItem(c.Include, nil))
		}
	} else {
		compile = globSources(dir, "", []string{"bin", "obj"})
		if !req.EvaluationOnly && tf != "" {
			generated, err := writeGeneratedSources(dir, config, tf, props)
			if err != nil {
				return nil, &evaluation.Failure{ProjectPath: req.ProjectPath, TargetFramework: tf, Err: err}
			}
			compile = append(compile, generated...)
		}
	}

	return evaluation.NewResult(req.ProjectPath, req.TargetFramework, props,
		map[string][]evaluation.Item{evaluation.ItemCompile: compile}), nil
}

func frameworkMoniker(tf string) string {
	for _, f := range []struct{ prefix, identifier string }{
		{"netcoreapp", ".NETCoreApp"},
		{"netstandard", ".NETStandard"},
		{"net", ".NETCoreApp"},
	} {
		if v, ok := strings.CutPrefix(tf, f.prefix); ok {
			return f.identifier + ",Version=v" + v
		}
	}
	return tf
}

func maxLangVersion(tf string) string {
	switch tf {
	case "net6.0":
		return "10.0"
	case "net7.0":
		return "11.0"
	case "net8.0":
		return "12.0"
	}
	return "7.3"
}

// writeGeneratedSources writes the files the SDK generates under
// obj/<config>/<tf>/ before compiling: the target framework attribute and,
// unless GenerateAssemblyInfo is false, <name>.AssemblyInfo.cs
func writeGeneratedSources(dir, config, tf string, props map[string]string) ([]evaluation.Item, error) {
	moniker := frameworkMoniker(tf)
	files := map[string]string{
		moniker + ".AssemblyAttributes.cs": "[assembly: global::System.Runtime.Versioning.TargetFrameworkAttribute(\"" + moniker + "\")]\n",
	}
	names := []string{moniker + ".AssemblyAttributes.cs"}
	if !strings.EqualFold(props["GenerateAssemblyInfo"], "false") {
		name := props["AssemblyName"]
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(props["MSBuildProjectFullPath"]), filepath.Ext(props["MSBuildProjectFullPath"]))
		}
		files[name+".AssemblyInfo.cs"] = "[assembly: System.Reflection.AssemblyTitleAttribute(\"" + name + "\")]\n"
		names = append(names, name+".AssemblyInfo.cs")
	}

	var items []evaluation.Item
	for _, name := range names {
		rel := filepath.Join("obj", config, tf, name)
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte("// <autogenerated />\n"+files[name]), 0o644); err != nil {
			return nil, err
		}
		items = append(items, evaluation.NewItem(rel, map[string]string{"FullPath": path}))
	}
	return items, nil
}

// globSources lists *.cs files below dir/sub in lexical order, skipping the
// named top-level directories
func globSources(dir, sub string, skip []string) []evaluation.Item {
	var items []evaluation.Item
	root := filepath.Join(dir, sub)
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			for _, s := range skip {
				if path == filepath.Join(dir, s) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if filepath.Ext(path) == ".cs" {
			rel, _ := filepath.Rel(dir, path)
			items = append(items, evaluation.NewItem(rel, map[string]string{"FullPath": path}))
		}
		return nil
	})
	return items
}

// fixture copies testdata/name into a temporary directory and returns the
// path of its project file
func fixture(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.CopyFS(dir, os.DirFS(filepath.Join("testdata", name))))
	return filepath.Join(dir, name+".csproj")
}

var errEngine = errors.New("engine exited with code 1")
