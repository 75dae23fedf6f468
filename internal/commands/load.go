package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/discovery"
	"github.com/simonhull/heron/pkg/evaluation"
	"github.com/simonhull/heron/pkg/filesystem"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/model"
	"github.com/simonhull/heron/pkg/output"
	"github.com/simonhull/heron/pkg/project"
	"github.com/simonhull/heron/pkg/sdks"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type loadFlags struct {
	format        string
	properties    []string
	configuration string
	platform      string
	primary       string
	sdksPath      string
	parallel      int
	timeout       time.Duration
}

// report is one loaded project as printed by --format json|yaml
type report struct {
	Path        string                 `json:"path" yaml:"path"`
	Project     *model.ProjectFileInfo `json:"project" yaml:"project"`
	Diagnostics diagnostics.List       `json:"diagnostics" yaml:"diagnostics"`
}

func newLoadCmd(e *env) *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "load [path...]",
		Short: "Evaluate projects and print their normalized metadata",
		Long: `Evaluates every project file at the given paths (directories are searched
recursively, skipping bin and obj) and prints the normalized result.

Examples:
  heron load                                  # every project below the current directory
  heron load src/App/App.csproj --format json
  heron load -p Configuration=Release -p DefineConstants=CI
  heron load --primary net8.0 --parallel 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, e, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "Output format: text, json or yaml")
	cmd.Flags().StringArrayVarP(&flags.properties, "property", "p", nil, "Global property Name=Value (repeatable)")
	cmd.Flags().StringVar(&flags.configuration, "configuration", "", "Build configuration (default from heron.yml)")
	cmd.Flags().StringVar(&flags.platform, "platform", "", "Build platform")
	cmd.Flags().StringVar(&flags.primary, "primary", "", "Target framework supplying project-level fields")
	cmd.Flags().StringVar(&flags.sdksPath, "sdks-path", "", "MSBuild SDKs directory")
	cmd.Flags().IntVar(&flags.parallel, "parallel", 0, "Maximum concurrent target evaluations")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Timeout for a single evaluation")

	return cmd
}

func runLoad(cmd *cobra.Command, e *env, flags loadFlags, args []string) error {
	switch flags.format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (use text, json or yaml)", flags.format)
	}

	cfg, log, err := e.settings(cmd)
	if err != nil {
		return err
	}
	applyLoadFlags(cmd, cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts, err := loadOptions(cfg, flags)
	if err != nil {
		return err
	}
	opts.Engine = e.engine
	opts.Fs = e.fs
	opts.Logger = log

	paths, err := projectPaths(e, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	locator := e.locator(cfg, log)
	type located struct {
		resolver *sdks.Resolver
		diags    diagnostics.List
	}
	byDir := map[string]located{}
	reports := make([]report, 0, len(paths))
	failed := 0

	for _, path := range paths {
		dir := filepath.Dir(path)
		loc, ok := byDir[dir]
		if !ok {
			loc.resolver, loc.diags = resolve(ctx, locator, cfg, e, dir, log)
			byDir[dir] = loc
		}

		o := opts
		o.Sdks = loc.resolver

		var (
			info  *model.ProjectFileInfo
			diags diagnostics.List
		)
		err := output.Spin(ctx, cmd.ErrOrStderr(), "Evaluating "+filepath.Base(path), func(ctx context.Context) error {
			info, diags = project.Load(ctx, path, o)
			return nil
		})
		if err != nil {
			return err
		}

		diags = append(append(diagnostics.List{}, loc.diags...), diags...)
		if info == nil {
			failed++
		}
		reports = append(reports, report{Path: path, Project: info, Diagnostics: diags})
	}

	if err := render(cmd.OutOrStdout(), flags.format, reports); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d projects failed to load", failed, len(reports))
	}
	return nil
}

// applyLoadFlags lets explicitly set flags override the configuration
func applyLoadFlags(cmd *cobra.Command, cfg *config.Config, flags loadFlags) {
	f := cmd.Flags()
	if f.Changed("configuration") {
		cfg.MSBuild.Configuration = flags.configuration
	}
	if f.Changed("platform") {
		cfg.MSBuild.Platform = flags.platform
	}
	if f.Changed("primary") {
		cfg.MSBuild.PrimaryTargetFramework = flags.primary
	}
	if f.Changed("sdks-path") {
		cfg.MSBuild.SdksPath = flags.sdksPath
	}
	if f.Changed("parallel") {
		cfg.MSBuild.MaxParallelism = flags.parallel
	}
	if f.Changed("timeout") {
		cfg.MSBuild.EvaluationTimeout = flags.timeout.String()
	}
}

func loadOptions(cfg *config.Config, flags loadFlags) (project.Options, error) {
	timeout, err := cfg.MSBuild.Timeout()
	if err != nil {
		return project.Options{}, err
	}

	props := evaluation.FromMap(cfg.MSBuild.Properties)
	for _, raw := range flags.properties {
		p, err := evaluation.ParseProperty(raw)
		if err != nil {
			return project.Options{}, err
		}
		props = props.With(p.Name, p.Value)
	}

	return project.Options{
		Properties:             props,
		Configuration:          cfg.MSBuild.Configuration,
		Platform:               cfg.MSBuild.Platform,
		MaxParallelism:         cfg.MSBuild.MaxParallelism,
		EvaluationTimeout:      timeout,
		PrimaryTargetFramework: cfg.MSBuild.PrimaryTargetFramework,
	}, nil
}

// projectPaths expands args into project files, in argument order
func projectPaths(e *env, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	var paths []string
	seen := map[string]bool{}
	for _, arg := range args {
		found, err := filesystem.FindProjectFiles(e.fs, arg)
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", arg, err)
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no project files found in %s", arg)
		}
		for _, p := range found {
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	return paths, nil
}

// resolve locates the SDK for dir. A failed lookup still yields a resolver so
// evaluation is attempted; the failure becomes a ConfigurationError.
func resolve(ctx context.Context, locator sdkLocator, cfg *config.Config, e *env, dir string, log logger.Logger) (*sdks.Resolver, diagnostics.List) {
	opts := sdks.Options{SdksPath: cfg.MSBuild.SdksPath, Fs: e.fs}

	inst, err := locator.Locate(ctx, dir)
	if err != nil {
		log.Warn("No .NET SDK located", logger.F("dir", dir), logger.F("error", err))
		fallback := &discovery.Instance{DotNetPath: cfg.MSBuild.DotNetPath}
		return sdks.NewResolver(fallback, opts), diagnostics.List{
			diagnostics.New(diagnostics.ConfigurationError, "no .NET SDK located: %v", err),
		}
	}

	output.Verbose(fmt.Sprintf("Using %s (%s)", inst.Name, inst.SDKPath))
	return sdks.NewResolver(inst, opts), nil
}

func render(w io.Writer, format string, reports []report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	}

	prev := output.SetOutput(w)
	defer output.SetOutput(prev)

	for _, r := range reports {
		printReport(r)
	}
	return nil
}

func printReport(r report) {
	if r.Project == nil {
		output.Error("Failed to load " + r.Path)
	} else {
		p := r.Project
		output.Success(fmt.Sprintf("%s (%s)", p.Name, strings.Join(p.TargetFrameworks, ", ")))
		output.Step("Path:    " + p.FilePath)
		output.Step("Output:  " + p.OutputPath)
		if p.LanguageVersion != nil {
			output.Step("Lang:    " + *p.LanguageVersion)
		}
		if len(p.TargetFrameworks) > 1 {
			output.Step("Primary: " + p.PrimaryTargetFramework)
		}
		output.Step(fmt.Sprintf("Sources: %d", len(p.SourceFiles)))
		for _, src := range p.SourceFiles {
			output.Verbose(src)
		}
	}

	for _, d := range r.Diagnostics {
		if d.IsError() {
			output.Error(d.Error())
		} else {
			output.Warn(d.Error())
		}
	}
}
