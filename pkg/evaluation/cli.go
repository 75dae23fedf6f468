package evaluation

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/exec"
	"github.com/simonhull/heron/pkg/logger"
)

// CLIEngine evaluates projects by running `dotnet msbuild` with
// -getProperty/-getItem, which prints a JSON document. Unless the request is
// EvaluationOnly the design-time Compile target runs first, so items are
// reported as the compiler would see them. Requires a .NET 8 or newer SDK.
type CLIEngine struct {
	dotnet     string
	executor   *exec.Executor
	properties []string
	items      []string
	logger     logger.Logger
}

// NewCLIEngine creates an engine driving the given dotnet executable.
// A nil executor gets one with default options.
func NewCLIEngine(dotnetPath string, executor *exec.Executor) *CLIEngine {
	if dotnetPath == "" {
		dotnetPath = "dotnet"
	}
	if executor == nil {
		executor = exec.NewExecutor(nil)
	}
	return &CLIEngine{
		dotnet:     dotnetPath,
		executor:   executor,
		properties: DefaultProperties,
		items:      DefaultItems,
		logger:     logger.NewSilentLogger(),
	}
}

// WithLogger returns a copy of the engine tracing invocations to log
func (e *CLIEngine) WithLogger(log logger.Logger) *CLIEngine {
	clone := *e
	clone.logger = log
	return &clone
}

// Args returns the dotnet arguments used for req
func (e *CLIEngine) Args(req Request) []string {
	args := []string{"msbuild", req.ProjectPath, "-nologo"}
	for _, p := range e.properties {
		args = append(args, "-getProperty:"+p)
	}
	for _, i := range e.items {
		args = append(args, "-getItem:"+i)
	}

	props := req.Properties
	if !req.EvaluationOnly {
		args = append(args, "-target:"+DesignTimeTarget)
		props = DesignTimeProperties.Merge(props)
	}
	if req.TargetFramework != "" {
		props = props.With(PropTargetFramework, req.TargetFramework)
	}
	for _, p := range props.All() {
		args = append(args, "-property:"+p.Name+"="+escapeValue(p.Value))
	}
	return args
}

// Evaluate runs one engine invocation for req
func (e *CLIEngine) Evaluate(ctx context.Context, req Request) (*Result, error) {
	cmd := exec.NewGenericCommand(e.executor, e.dotnet).
		WithArgs(e.Args(req)...).
		WithEnv(req.Env...).
		WithDir(filepath.Dir(req.ProjectPath))

	log := e.logger.WithFields(
		logger.F("project", req.ProjectPath),
		logger.F("target", req.TargetFramework))
	log.Debug("Invoking evaluation engine", logger.F("command", cmd.String()))

	res, err := cmd.Capture(ctx)
	if err != nil {
		return nil, e.failure(ctx, req, res, err)
	}

	log.Debug("Evaluation finished", logger.F("duration", res.Duration))

	props, items, parseErr := parseEvaluationOutput(res.Stdout)
	if parseErr != nil {
		return nil, &Failure{
			ProjectPath:     req.ProjectPath,
			TargetFramework: req.TargetFramework,
			Err:             parseErr,
			Diagnostics: diagnostics.List{
				diagnostics.New(diagnostics.EvaluationError, "unreadable engine output: %v", parseErr).
					At(req.ProjectPath, 0, 0).
					WithTarget(req.TargetFramework),
			},
		}
	}

	// Target output precedes the document on stdout
	var warnings diagnostics.List
	if start := documentStart(res.Stdout); start > 0 {
		warnings = parseDiagnostics(string(res.Stdout[:start]), req.ProjectPath)
	}
	warnings = append(warnings, parseDiagnostics(string(res.Stderr), req.ProjectPath)...)
	for i := range warnings {
		warnings[i] = warnings[i].WithTarget(req.TargetFramework)
	}

	return NewResult(req.ProjectPath, req.TargetFramework, props, items).WithDiagnostics(warnings), nil
}

func (e *CLIEngine) failure(ctx context.Context, req Request, res *exec.Result, err error) error {
	f := &Failure{
		ProjectPath:     req.ProjectPath,
		TargetFramework: req.TargetFramework,
		Err:             err,
	}

	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		f.Diagnostics = DiagnosticsFor(err, req.ProjectPath, req.TargetFramework)
		return f
	}

	if res != nil {
		// MSBuild prints its errors on stdout; keep stderr too for host failures
		f.Diagnostics = append(f.Diagnostics, parseDiagnostics(string(res.Stdout), req.ProjectPath)...)
		f.Diagnostics = append(f.Diagnostics, parseDiagnostics(string(res.Stderr), req.ProjectPath)...)
	}
	for i := range f.Diagnostics {
		f.Diagnostics[i] = f.Diagnostics[i].WithTarget(req.TargetFramework)
	}
	if !f.Diagnostics.HasErrors() {
		f.Diagnostics = append(f.Diagnostics,
			diagnostics.New(diagnostics.EvaluationError, "%v", err).
				At(req.ProjectPath, 0, 0).
				WithTarget(req.TargetFramework))
	}
	return f
}
