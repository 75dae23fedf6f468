// Package exec runs external commands with context support.
//
// The package is domain-agnostic. It provides:
//
// 1. Executor - runs commands with cancellation, timeouts, extra environment
// and a working directory, either streaming output (Run) or buffering it
// (Capture).
// 2. GenericCommand - a fluent builder over an Executor.
//
// # Basic Usage
//
//	executor := exec.NewExecutor(nil)
//	res, err := exec.NewGenericCommand(executor, "dotnet").
//	    WithArgs("--list-sdks").
//	    WithEnv("DOTNET_NOLOGO=1").
//	    Capture(ctx)
//
// Cancelling ctx kills the child process. A command that exits non-zero is
// reported as *ExitError, and Capture still returns the buffered output so
// callers can parse diagnostics the tool printed before failing.
//
// # Testing
//
// WithCommandFunc swaps the command factory, which lets tests re-exec the
// test binary as a fake tool (see TestHelperProcess in exec_test.go).
package exec
