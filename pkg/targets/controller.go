package targets

import (
	"context"
	"time"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/evaluation"
	"github.com/simonhull/heron/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultEvaluationTimeout bounds a single engine invocation
const DefaultEvaluationTimeout = 2 * time.Minute

// Options configures a Controller
type Options struct {
	// MaxParallelism bounds concurrent per-target evaluations; values below 1 mean 1
	MaxParallelism int
	// EvaluationTimeout bounds each engine invocation; zero uses DefaultEvaluationTimeout
	EvaluationTimeout time.Duration
	Logger            logger.Logger
}

// Controller discovers a project's targets and evaluates each of them
type Controller struct {
	engine         evaluation.Engine
	maxParallelism int
	timeout        time.Duration
	logger         logger.Logger
}

// NewController creates a controller driving engine
func NewController(engine evaluation.Engine, opts Options) *Controller {
	c := &Controller{
		engine:         engine,
		maxParallelism: opts.MaxParallelism,
		timeout:        opts.EvaluationTimeout,
		logger:         opts.Logger,
	}
	if c.maxParallelism < 1 {
		c.maxParallelism = 1
	}
	if c.timeout <= 0 {
		c.timeout = DefaultEvaluationTimeout
	}
	if c.logger == nil {
		c.logger = logger.NewSilentLogger()
	}
	return c
}

// Resolution is the outcome of the outer evaluation
type Resolution struct {
	// Declared lists the distinct target frameworks in declared order
	Declared []string
	Source   Source
	// Outer is the evaluation without a target selector
	Outer *evaluation.Result
	// OuterEvaluationOnly is set when Outer ran without the design-time
	// target, so its Compile items lack generated sources
	OuterEvaluationOnly bool
}

// ReusesOuter reports whether the outer evaluation already is the single
// target's evaluation. Lists declared through TargetFrameworks, and outer
// evaluations that skipped the design-time target, need a dedicated
// evaluation per target.
func (r *Resolution) ReusesOuter() bool {
	return r.Source != SourceTargetFrameworks && len(r.Declared) == 1 && !r.OuterEvaluationOnly
}

// Outcome is the result of evaluating one target. Result is nil when the
// evaluation failed, and Diagnostics then explains why.
type Outcome struct {
	TargetFramework string
	Result          *evaluation.Result
	Diagnostics     diagnostics.List
}

// OK reports whether the target evaluated
func (o Outcome) OK() bool {
	return o.Result != nil
}

// ResolveTargets runs the outer evaluation of req.ProjectPath and reads the
// declared targets. An engine failure is returned as is; a project without
// targets yields *NoTargetFrameworkError. When the project turns out to have
// no design-time target before a TargetFramework is chosen (multi-targeting
// declared outside the project file) the outer evaluation is repeated with
// EvaluationOnly.
func (c *Controller) ResolveTargets(ctx context.Context, req evaluation.Request) (*Resolution, error) {
	req.TargetFramework = ""

	outer, err := c.evaluate(ctx, req)
	if err != nil && !req.EvaluationOnly && evaluation.IsMissingTarget(err) {
		c.logger.Debug("Outer evaluation has no design-time target, evaluating only",
			logger.F("project", req.ProjectPath))
		req.EvaluationOnly = true
		outer, err = c.evaluate(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	declared, source := Declared(outer)
	if len(declared) == 0 {
		return nil, &NoTargetFrameworkError{ProjectPath: req.ProjectPath}
	}

	c.logger.Debug("Resolved target frameworks",
		logger.F("project", req.ProjectPath),
		logger.F("targets", declared),
		logger.F("source", string(source)))

	return &Resolution{
		Declared:            declared,
		Source:              source,
		Outer:               outer,
		OuterEvaluationOnly: req.EvaluationOnly,
	}, nil
}

// Evaluate produces one Outcome per declared target, in declared order.
// A single target declared without TargetFrameworks reuses the outer
// evaluation. Failures are recorded per target and never stop the others;
// once ctx is cancelled no new evaluation starts and unfinished targets are
// marked cancelled.
func (c *Controller) Evaluate(ctx context.Context, req evaluation.Request, res *Resolution) []Outcome {
	if res.ReusesOuter() {
		return []Outcome{{
			TargetFramework: res.Declared[0],
			Result:          res.Outer,
			Diagnostics:     res.Outer.Diagnostics(),
		}}
	}

	// Each goroutine owns one slot; the caller reads the arena after Wait
	arena := make([]Outcome, len(res.Declared))

	var g errgroup.Group
	g.SetLimit(c.maxParallelism)

	for i, tf := range res.Declared {
		if ctx.Err() != nil {
			arena[i] = c.failed(ctx.Err(), req.ProjectPath, tf)
			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				arena[i] = c.failed(ctx.Err(), req.ProjectPath, tf)
				return nil
			}

			treq := req
			treq.TargetFramework = tf
			treq.EvaluationOnly = false
			result, err := c.evaluate(ctx, treq)
			if err != nil {
				arena[i] = c.failed(err, req.ProjectPath, tf)
				return nil
			}
			arena[i] = Outcome{TargetFramework: tf, Result: result, Diagnostics: result.Diagnostics()}
			return nil
		})
	}
	_ = g.Wait()

	return arena
}

func (c *Controller) evaluate(ctx context.Context, req evaluation.Request) (*evaluation.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.engine.Evaluate(ctx, req)
	if err == nil && ctx.Err() != nil {
		// The engine finished but ignored the deadline
		err = ctx.Err()
	}

	log := c.logger.WithFields(
		logger.F("project", req.ProjectPath),
		logger.F("target", req.TargetFramework),
		logger.F("duration", time.Since(start).Round(time.Millisecond)))
	if err != nil {
		log.Debug("Evaluation failed", logger.F("error", err))
		return nil, err
	}
	log.Debug("Evaluation succeeded")
	return result, nil
}

func (c *Controller) failed(err error, projectPath, tf string) Outcome {
	return Outcome{
		TargetFramework: tf,
		Diagnostics:     evaluation.DiagnosticsFor(err, projectPath, tf),
	}
}
