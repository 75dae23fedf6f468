package project

import (
	"context"
	"errors"
	"time"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/evaluation"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/model"
	"github.com/simonhull/heron/pkg/normalize"
	"github.com/simonhull/heron/pkg/sdks"
	"github.com/simonhull/heron/pkg/targets"
	"github.com/spf13/afero"
)

// Options configures how projects are loaded
type Options struct {
	// Engine evaluates project files; nil runs `dotnet msbuild`
	Engine evaluation.Engine
	// Sdks supplies the engine environment; nil leaves the engine to its defaults
	Sdks *sdks.Resolver
	// Fs is read for the project file and source existence checks
	Fs     afero.Fs
	Logger logger.Logger

	// Properties are global property overrides; they win over Configuration and Platform
	Properties    evaluation.Properties
	Configuration string
	Platform      string

	MaxParallelism    int
	EvaluationTimeout time.Duration
	// PrimaryTargetFramework picks the target supplying project-level fields;
	// empty means the first declared target
	PrimaryTargetFramework string
}

// Loader loads projects with a fixed set of options. It is safe for
// concurrent use.
type Loader struct {
	opts       Options
	engine     evaluation.Engine
	controller *targets.Controller
	normalizer *normalize.Normalizer
	logger     logger.Logger
	fs         afero.Fs
}

// NewLoader creates a loader
func NewLoader(opts Options) *Loader {
	l := &Loader{opts: opts, logger: opts.Logger, fs: opts.Fs}
	if l.logger == nil {
		l.logger = logger.NewSilentLogger()
	}
	if l.fs == nil {
		l.fs = afero.NewOsFs()
	}

	l.engine = opts.Engine
	if l.engine == nil {
		dotnet := ""
		if opts.Sdks != nil {
			dotnet = opts.Sdks.DotNetPath()
		}
		l.engine = evaluation.NewCLIEngine(dotnet, nil).WithLogger(l.logger)
	}

	l.controller = targets.NewController(l.engine, targets.Options{
		MaxParallelism:    opts.MaxParallelism,
		EvaluationTimeout: opts.EvaluationTimeout,
		Logger:            l.logger,
	})
	l.normalizer = normalize.New(normalize.Options{Fs: l.fs, Logger: l.logger})
	return l
}

// Load evaluates the project at path with opts
func Load(ctx context.Context, path string, opts Options) (*model.ProjectFileInfo, diagnostics.List) {
	return NewLoader(opts).Load(ctx, path)
}

// Load evaluates the project at path. Diagnostics are always returned; the
// project model is nil only when no target evaluated.
func (l *Loader) Load(ctx context.Context, path string) (*model.ProjectFileInfo, diagnostics.List) {
	diags := diagnostics.List{}

	desc, err := ReadDescriptor(l.fs, path)
	if err != nil {
		return nil, append(diags, evaluation.DiagnosticsFor(err, desc.Path, "")...)
	}

	log := l.logger.WithFields(logger.F("project", desc.Path))
	log.Info("Loading project", logger.F("sdk", desc.Sdk))

	// The outer evaluation of a multi-targeting project has no design-time target
	req := evaluation.Request{
		ProjectPath:    desc.Path,
		Properties:     l.properties(),
		EvaluationOnly: desc.CrossTargeting,
	}
	if l.opts.Sdks != nil {
		diags = append(diags, l.opts.Sdks.Diagnostics()...)
		req.Env = l.opts.Sdks.Env()
	}

	res, err := l.controller.ResolveTargets(ctx, req)
	if err != nil {
		var noTF *targets.NoTargetFrameworkError
		if errors.As(err, &noTF) {
			return nil, append(diags, noTF.Diagnostic())
		}
		return nil, append(diags, evaluation.DiagnosticsFor(err, desc.Path, "")...)
	}
	if !res.ReusesOuter() {
		diags = append(diags, res.Outer.Diagnostics()...)
	}

	primary, primaryDiags := targets.SelectPrimary(res.Declared, l.opts.PrimaryTargetFramework)
	diags = append(diags, primaryDiags...)

	normalizer := l.normalizer.WithDeclaredLangVersion(desc.LangVersion != "")
	var fragments []model.TargetInfo
	for _, outcome := range l.controller.Evaluate(ctx, req, res) {
		diags = append(diags, outcome.Diagnostics...)
		if !outcome.OK() {
			continue
		}

		info, normDiags, err := normalizer.Normalize(outcome.Result, outcome.TargetFramework)
		if err != nil {
			diags = append(diags, evaluation.DiagnosticsFor(err, desc.Path, outcome.TargetFramework)...)
			continue
		}
		diags = append(diags, normDiags...)
		fragments = append(fragments, info)
	}

	info, mergeDiags := normalize.Merge(normalize.Input{
		FilePath:   desc.Path,
		IsSdkStyle: desc.IsSdkStyle(),
		Declared:   res.Declared,
		Primary:    primary,
		Targets:    fragments,
	})
	diags = append(diags, mergeDiags...)

	if info == nil {
		log.Warn("No target evaluated", logger.F("targets", res.Declared))
		return nil, diags
	}

	log.Info("Loaded project",
		logger.F("targets", info.TargetFrameworks),
		logger.F("sources", len(info.SourceFiles)),
		logger.F("diagnostics", len(diags)))
	return info, diags
}

// properties layers installation overrides, configuration and platform, then
// the caller's explicit properties
func (l *Loader) properties() evaluation.Properties {
	var props evaluation.Properties
	if l.opts.Sdks != nil {
		props = evaluation.FromMap(l.opts.Sdks.PropertyOverrides())
	}
	if l.opts.Configuration != "" {
		props = props.With(evaluation.PropConfiguration, l.opts.Configuration)
	}
	if l.opts.Platform != "" {
		props = props.With(evaluation.PropPlatform, l.opts.Platform)
	}
	return props.Merge(l.opts.Properties)
}
