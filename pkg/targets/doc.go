// Package targets turns one project into one evaluation per target framework.
//
// ResolveTargets runs the outer evaluation (no TargetFramework selector) and
// reads the declared targets. Evaluate then fans out one engine invocation per
// target through a bounded errgroup, writing each outcome into its own slot so
// the caller sees results in declared order regardless of completion order.
//
//	c := targets.NewController(engine, targets.Options{MaxParallelism: 2})
//	res, err := c.ResolveTargets(ctx, req)
//	if err != nil {
//	    return err
//	}
//	for _, o := range c.Evaluate(ctx, req, res) {
//	    ...
//	}
package targets
