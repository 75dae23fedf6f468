package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultWaitDelay bounds how long a killed command may keep its output pipes
// open through child processes that inherited them
const DefaultWaitDelay = 5 * time.Second

// Executor runs external commands
type Executor struct {
	stdout    io.Writer
	stderr    io.Writer
	env       []string
	dir       string
	timeout   time.Duration
	waitDelay time.Duration

	// For mocking in tests
	commandFunc func(name string, args ...string) *exec.Cmd
}

// Options configures command execution
type Options struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Env     []string      // Additional environment variables
	Dir     string        // Working directory
	Timeout time.Duration // Per-command timeout, zero means none

	// WaitDelay bounds waiting for output after the command exits or is
	// killed; zero uses DefaultWaitDelay
	WaitDelay time.Duration
}

// Result is the captured outcome of a finished command
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// ExitError reports a command that ran but exited non-zero
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s failed with exit code %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + firstLine(s)
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExecutor creates an executor with sensible defaults
func NewExecutor(opts *Options) *Executor {
	if opts == nil {
		opts = &Options{}
	}

	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	waitDelay := opts.WaitDelay
	if waitDelay <= 0 {
		waitDelay = DefaultWaitDelay
	}

	return &Executor{
		stdout:      stdout,
		stderr:      stderr,
		env:         opts.Env,
		dir:         opts.Dir,
		timeout:     opts.Timeout,
		waitDelay:   waitDelay,
		commandFunc: exec.Command,
	}
}

// WithCommandFunc returns a copy of the executor that builds commands with fn.
// Tests use it to substitute a helper process for real binaries.
func (e *Executor) WithCommandFunc(fn func(name string, args ...string) *exec.Cmd) *Executor {
	clone := *e
	clone.commandFunc = fn
	return &clone
}

// Run executes a command, streaming its output to the executor's writers
func (e *Executor) Run(ctx context.Context, name string, args ...string) error {
	_, err := e.run(ctx, e.stdout, e.stderr, name, args...)
	return err
}

// Capture executes a command and returns its buffered output.
// A non-zero exit is returned as *ExitError together with the Result.
func (e *Executor) Capture(ctx context.Context, name string, args ...string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	res, err := e.run(ctx, &stdout, &stderr, name, args...)
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ExitError{
			Command:  name,
			ExitCode: res.ExitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return res, err
}

func (e *Executor) run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) (*Result, error) {
	res := &Result{ExitCode: -1}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("%s cancelled: %w", name, err)
	}

	cmd := e.commandFunc(name, args...)

	if e.dir != "" {
		cmd.Dir = e.dir
	}

	// Keep any environment the command factory already set
	if len(e.env) > 0 {
		base := cmd.Env
		if base == nil {
			base = os.Environ()
		}
		cmd.Env = append(base, e.env...)
	}

	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// MSBuild nodes and build servers can outlive the process and hold its pipes
	cmd.WaitDelay = e.waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if isCommandNotFound(err) {
			return res, enhanceError(err, name)
		}
		return res, fmt.Errorf("failed to start %s: %w", name, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-errCh
		res.Duration = time.Since(start)
		return res, fmt.Errorf("%s cancelled: %w", name, ctx.Err())
	case err := <-errCh:
		res.Duration = time.Since(start)
		if cmd.ProcessState != nil {
			res.ExitCode = cmd.ProcessState.ExitCode()
		}
		if err != nil {
			if isCommandNotFound(err) {
				return res, enhanceError(err, name)
			}
			return res, fmt.Errorf("%s failed: %w", name, err)
		}
		return res, nil
	}
}

// isCommandNotFound checks if an error indicates a command was not found
func isCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, exec.ErrNotFound) ||
		strings.Contains(err.Error(), "executable file not found") ||
		strings.Contains(err.Error(), "no such file or directory")
}

// enhanceError adds helpful message for missing commands
func enhanceError(err error, cmd string) error {
	return fmt.Errorf("%w\n💡 Command '%s' not found. Please install it and try again", err, cmd)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// GenericCommand provides a fluent API for building and executing commands
type GenericCommand struct {
	executor *Executor
	command  string
	args     []string
	env      []string
	dir      string
}

// NewGenericCommand creates a new generic command builder
func NewGenericCommand(executor *Executor, command string) *GenericCommand {
	return &GenericCommand{
		executor: executor,
		command:  command,
		args:     []string{},
	}
}

// WithArgs adds arguments to the command
func (g *GenericCommand) WithArgs(args ...string) *GenericCommand {
	g.args = append(g.args, args...)
	return g
}

// WithEnv adds environment variables
func (g *GenericCommand) WithEnv(env ...string) *GenericCommand {
	g.env = append(g.env, env...)
	return g
}

// WithDir sets the working directory
func (g *GenericCommand) WithDir(dir string) *GenericCommand {
	g.dir = dir
	return g
}

// Run executes the command, streaming output
func (g *GenericCommand) Run(ctx context.Context) error {
	return g.executorForCommand().Run(ctx, g.command, g.args...)
}

// Capture executes the command and returns its buffered output
func (g *GenericCommand) Capture(ctx context.Context) (*Result, error) {
	return g.executorForCommand().Capture(ctx, g.command, g.args...)
}

func (g *GenericCommand) executorForCommand() *Executor {
	env := make([]string, 0, len(g.executor.env)+len(g.env))
	env = append(env, g.executor.env...)
	env = append(env, g.env...)

	cmdExecutor := *g.executor
	cmdExecutor.env = env
	if g.dir != "" {
		cmdExecutor.dir = g.dir
	}
	return &cmdExecutor
}

// String returns the command string representation for debugging
func (g *GenericCommand) String() string {
	parts := []string{g.command}
	parts = append(parts, g.args...)
	return strings.Join(parts, " ")
}
