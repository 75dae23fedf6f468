package commands

import (
	"context"
	"io"
	"os"

	"github.com/simonhull/heron"
	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/discovery"
	"github.com/simonhull/heron/pkg/evaluation"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/output"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// env holds what commands reach outside the process for
type env struct {
	fs    afero.Fs
	stdin io.Reader

	// engine replaces `dotnet msbuild` when set
	engine evaluation.Engine
	// locator builds the SDK locator for a configuration
	locator func(cfg *config.Config, log logger.Logger) sdkLocator
}

type sdkLocator interface {
	Locate(ctx context.Context, projectDir string) (*discovery.Instance, error)
	ListSDKs(ctx context.Context) ([]discovery.SDK, error)
}

func defaultEnv() *env {
	return &env{
		fs:    afero.NewOsFs(),
		stdin: os.Stdin,
		locator: func(cfg *config.Config, log logger.Logger) sdkLocator {
			return discovery.NewLocator(discovery.Options{
				DotNetPath: cfg.MSBuild.DotNetPath,
				Logger:     log,
			})
		},
	}
}

// RootCmd creates the root command for the heron CLI with every subcommand attached
func RootCmd() *cobra.Command {
	return newRootCmd(defaultEnv())
}

func newRootCmd(e *env) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "heron",
		Short: "Normalized build metadata for MSBuild projects",
		Long: `Heron evaluates .csproj files with the installed .NET SDK and reports
what an editor or analyzer needs to know about them:

• Target frameworks, with a separate evaluation per framework
• Output path and compiled source files
• Language version, define constants and references

Configuration is read from heron.yml; HERON_* environment variables override it.`,
		Version:       heron.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringP("config", "c", config.FileName, "Path to configuration file")

	cmd.AddCommand(newLoadCmd(e))
	cmd.AddCommand(newSDKCmd(e))
	cmd.AddCommand(newConfigCmd(e))

	return cmd
}

// settings loads the configuration named by --config and builds the logger
func (e *env) settings(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(e.fs, path)
	if err != nil {
		return nil, nil, err
	}

	level, err := cfg.Log.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logger.LevelDebug
	}
	return cfg, logger.NewLogger(level, cmd.ErrOrStderr()), nil
}
