package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/evaluation"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/model"
	"github.com/spf13/afero"
)

// Options configures a Normalizer
type Options struct {
	// Fs is where source files are checked for existence
	Fs     afero.Fs
	Logger logger.Logger
}

// Normalizer maps raw evaluation results onto the project model
type Normalizer struct {
	fs     afero.Fs
	logger logger.Logger
	// foldCase compares paths case-insensitively when de-duplicating
	foldCase bool
	// langVersionDeclared is set when the project file assigns LangVersion
	langVersionDeclared bool
}

// New creates a normalizer
func New(opts Options) *Normalizer {
	n := &Normalizer{
		fs:       opts.Fs,
		logger:   opts.Logger,
		foldCase: runtime.GOOS == "windows",
	}
	if n.fs == nil {
		n.fs = afero.NewOsFs()
	}
	if n.logger == nil {
		n.logger = logger.NewSilentLogger()
	}
	return n
}

// WithDeclaredLangVersion returns a copy of n for a project whose file does
// (or does not) assign LangVersion itself
func (n *Normalizer) WithDeclaredLangVersion(declared bool) *Normalizer {
	c := *n
	c.langVersionDeclared = declared
	return &c
}

// Normalize converts the evaluation of target tf. A missing OutputPath fails
// the target with an EvaluationError; dropped source files are reported as
// NormalizationWarnings.
func (n *Normalizer) Normalize(result *evaluation.Result, tf string) (model.TargetInfo, diagnostics.List, error) {
	var diags diagnostics.List

	outputPath, err := result.RequiredProperty(evaluation.PropOutputPath)
	if err != nil {
		var d diagnostics.Diagnostic
		if !errors.As(err, &d) {
			d = diagnostics.New(diagnostics.EvaluationError, "%v", err)
		}
		return model.TargetInfo{}, nil, d.WithTarget(tf)
	}

	dir := projectDir(result)

	sources, dropped := n.sourceFiles(result, dir, tf)
	diags = append(diags, dropped...)

	info := model.TargetInfo{
		TargetFramework:       tf,
		OutputPath:            OutputPath(outputPath),
		SourceFiles:           sources,
		LanguageVersion:       LanguageVersion(result, n.langVersionDeclared),
		AssemblyName:          strings.TrimSpace(result.PropertyOr(evaluation.PropAssemblyName, "")),
		TargetPath:            strings.TrimSpace(result.PropertyOr(evaluation.PropTargetPath, "")),
		Configuration:         strings.TrimSpace(result.PropertyOr(evaluation.PropConfiguration, "")),
		Platform:              strings.TrimSpace(result.PropertyOr(evaluation.PropPlatform, "")),
		OutputKind:            strings.TrimSpace(result.PropertyOr(evaluation.PropOutputType, "")),
		DefineConstants:       SplitList(result.PropertyOr(evaluation.PropDefineConstants, "")),
		AllowUnsafeCode:       result.BoolProperty(evaluation.PropAllowUnsafeBlocks),
		TreatWarningsAsErrors: result.BoolProperty(evaluation.PropTreatWarningsAsErrors),
		Nullable:              strings.TrimSpace(result.PropertyOr(evaluation.PropNullable, "")),
		ProjectReferences:     n.projectReferences(result, dir),
		PackageReferences:     packageReferences(result),
	}

	n.logger.Debug("Normalized target",
		logger.F("project", result.ProjectPath()),
		logger.F("target", tf),
		logger.F("sources", len(sources)),
		logger.F("dropped", len(dropped)))

	return info, diags, nil
}

// OutputPath rewrites an output path with forward slashes, single separators
// and a trailing slash. Relative paths stay relative to the project directory.
func OutputPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// LanguageVersion returns the trimmed LangVersion property, or nil when the
// project leaves it to the compiler default. The SDK fills an unset
// LangVersion with MaxSupportedLangVersion, so that value only counts when
// declared is set.
func LanguageVersion(result *evaluation.Result, declared bool) *string {
	v, ok := result.Property(evaluation.PropLangVersion)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if maxVersion, ok := result.Property(evaluation.PropMaxSupportedLangVersion); ok && !declared &&
		strings.EqualFold(v, strings.TrimSpace(maxVersion)) {
		return nil
	}
	return &v
}

// SplitList splits a semicolon-separated property value, dropping blanks
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func projectDir(result *evaluation.Result) string {
	if dir, ok := result.Property(evaluation.PropProjectDirectory); ok {
		return filepath.Clean(dir)
	}
	return filepath.Dir(result.ProjectPath())
}

// itemPath returns the absolute, cleaned path an item refers to
func itemPath(item evaluation.Item, dir string) string {
	p := item.Metadata("FullPath")
	if p == "" {
		p = item.Include
	}
	p = filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return filepath.Clean(p)
}

func (n *Normalizer) key(p string) string {
	if n.foldCase {
		return strings.ToLower(p)
	}
	return p
}

func (n *Normalizer) sourceFiles(result *evaluation.Result, dir, tf string) ([]string, diagnostics.List) {
	sources := []string{}
	var diags diagnostics.List
	seen := map[string]bool{}

	for _, item := range result.Items(evaluation.ItemCompile) {
		if strings.TrimSpace(item.Include) == "" && item.Metadata("FullPath") == "" {
			continue
		}

		p := itemPath(item, dir)
		k := n.key(p)
		if seen[k] {
			continue
		}
		seen[k] = true

		info, err := n.fs.Stat(p)
		switch {
		case err != nil && os.IsNotExist(err):
			diags = append(diags, diagnostics.New(diagnostics.NormalizationWarning,
				"source file %s does not exist and was dropped", p).WithTarget(tf))
			continue
		case err != nil:
			diags = append(diags, diagnostics.New(diagnostics.NormalizationWarning,
				"source file %s is unreadable and was dropped: %v", p, err).WithTarget(tf))
			continue
		case info.IsDir():
			diags = append(diags, diagnostics.New(diagnostics.NormalizationWarning,
				"source file %s is a directory and was dropped", p).WithTarget(tf))
			continue
		}

		sources = append(sources, p)
	}
	return sources, diags
}

func (n *Normalizer) projectReferences(result *evaluation.Result, dir string) []string {
	var refs []string
	seen := map[string]bool{}
	for _, item := range result.Items(evaluation.ItemProjectReference) {
		if strings.TrimSpace(item.Include) == "" && item.Metadata("FullPath") == "" {
			continue
		}
		p := itemPath(item, dir)
		if k := n.key(p); !seen[k] {
			seen[k] = true
			refs = append(refs, p)
		}
	}
	return refs
}

func packageReferences(result *evaluation.Result) []model.PackageReference {
	var refs []model.PackageReference
	seen := map[string]bool{}
	for _, item := range result.Items(evaluation.ItemPackageReference) {
		name := strings.TrimSpace(item.Include)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		refs = append(refs, model.PackageReference{
			Name:    name,
			Version: strings.TrimSpace(item.Metadata("Version")),
		})
	}
	return refs
}
