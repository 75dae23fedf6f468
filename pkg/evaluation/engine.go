package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/simonhull/heron/pkg/diagnostics"
)

// Well-known property names read from evaluations
const (
	PropTargetFramework           = "TargetFramework"
	PropTargetFrameworks          = "TargetFrameworks"
	PropTargetFrameworkIdentifier = "TargetFrameworkIdentifier"
	PropTargetFrameworkVersion    = "TargetFrameworkVersion"
	PropOutputPath                = "OutputPath"
	PropLangVersion               = "LangVersion"
	PropAssemblyName              = "AssemblyName"
	PropTargetPath                = "TargetPath"
	PropConfiguration             = "Configuration"
	PropPlatform                  = "Platform"
	PropOutputType                = "OutputType"
	PropDefineConstants           = "DefineConstants"
	PropAllowUnsafeBlocks         = "AllowUnsafeBlocks"
	PropTreatWarningsAsErrors     = "TreatWarningsAsErrors"
	PropNullable                  = "Nullable"
	PropProjectDirectory          = "MSBuildProjectDirectory"

	// PropMaxSupportedLangVersion is the language version the SDK assigns to
	// LangVersion when the project leaves it empty
	PropMaxSupportedLangVersion = "MaxSupportedLangVersion"
)

// DesignTimeTarget is run before items are read, so the sources the SDK
// generates under obj/ are part of Compile
const DesignTimeTarget = "Compile"

// CodeTargetDoesNotExist is MSBuild's error for an unknown -target
const CodeTargetDoesNotExist = "MSB4057"

// DesignTimeProperties make DesignTimeTarget compute items without compiling
var DesignTimeProperties = NewProperties(
	Property{Name: "DesignTimeBuild", Value: "true"},
	Property{Name: "SkipCompilerExecution", Value: "true"},
	Property{Name: "ProvideCommandLineArgs", Value: "true"},
)

// Well-known item kinds read from evaluations
const (
	ItemCompile          = "Compile"
	ItemProjectReference = "ProjectReference"
	ItemPackageReference = "PackageReference"
)

// DefaultProperties are requested from every evaluation
var DefaultProperties = []string{
	PropTargetFramework,
	PropTargetFrameworks,
	PropTargetFrameworkIdentifier,
	PropTargetFrameworkVersion,
	PropOutputPath,
	PropLangVersion,
	PropAssemblyName,
	PropTargetPath,
	PropConfiguration,
	PropPlatform,
	PropOutputType,
	PropDefineConstants,
	PropAllowUnsafeBlocks,
	PropTreatWarningsAsErrors,
	PropNullable,
	PropProjectDirectory,
	PropMaxSupportedLangVersion,
}

// DefaultItems are requested from every evaluation
var DefaultItems = []string{
	ItemCompile,
	ItemProjectReference,
	ItemPackageReference,
}

// Engine evaluates a project file. Each call is one engine invocation.
type Engine interface {
	Evaluate(ctx context.Context, req Request) (*Result, error)
}

// EngineFunc adapts a function to the Engine interface
type EngineFunc func(ctx context.Context, req Request) (*Result, error)

// Evaluate calls f
func (f EngineFunc) Evaluate(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

// Request describes one evaluation
type Request struct {
	ProjectPath string
	Properties  Properties
	// TargetFramework selects one target; empty evaluates the project's default
	TargetFramework string
	// Env is extra environment for the engine process (SDK paths)
	Env []string
	// EvaluationOnly skips DesignTimeTarget and reports items as evaluated.
	// The outer evaluation of a multi-target project needs it: that project
	// has no DesignTimeTarget until a TargetFramework is selected.
	EvaluationOnly bool
}

// Failure is an evaluation that produced no result
type Failure struct {
	ProjectPath     string
	TargetFramework string
	Diagnostics     diagnostics.List
	Err             error
}

func (f *Failure) Error() string {
	target := ""
	if f.TargetFramework != "" {
		target = fmt.Sprintf(" (%s)", f.TargetFramework)
	}
	if len(f.Diagnostics) > 0 {
		return fmt.Sprintf("evaluating %s%s: %s", f.ProjectPath, target, f.Diagnostics[0].Message)
	}
	return fmt.Sprintf("evaluating %s%s: %v", f.ProjectPath, target, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// IsMissingTarget reports whether err is an engine failure caused by a
// -target the project does not define
func IsMissingTarget(err error) bool {
	var failure *Failure
	if !errors.As(err, &failure) {
		return false
	}
	for _, d := range failure.Diagnostics {
		if d.Code == CodeTargetDoesNotExist {
			return true
		}
	}
	return false
}

// DiagnosticsFor converts any evaluation error into diagnostics tagged with tf.
// Failures keep the engine's own diagnostics; other errors become a single
// EvaluationError.
func DiagnosticsFor(err error, projectPath, tf string) diagnostics.List {
	if err == nil {
		return nil
	}

	var failure *Failure
	if errors.As(err, &failure) && len(failure.Diagnostics) > 0 {
		out := make(diagnostics.List, len(failure.Diagnostics))
		for i, d := range failure.Diagnostics {
			if d.TargetFramework == "" {
				d = d.WithTarget(tf)
			}
			out[i] = d
		}
		return out
	}

	var d diagnostics.Diagnostic
	if errors.As(err, &d) {
		return diagnostics.List{d.WithTarget(tf)}
	}

	return diagnostics.List{
		diagnostics.New(diagnostics.EvaluationError, "%s", describe(err)).
			At(projectPath, 0, 0).
			WithTarget(tf),
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "evaluation timed out"
	case errors.Is(err, context.Canceled):
		return "evaluation cancelled"
	default:
		return err.Error()
	}
}
