package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/simonhull/heron/pkg/discovery"
	"github.com/simonhull/heron/pkg/output"
	"github.com/simonhull/heron/pkg/sdks"
	"github.com/spf13/cobra"
)

func newSDKCmd(e *env) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "sdk [dir]",
		Short: "Show the .NET SDK used to evaluate projects",
		Long: `Shows which .NET SDK heron evaluates projects under dir with, honoring
global.json pins, and where the MSBuild SDKs directory was resolved from.

Examples:
  heron sdk
  heron sdk src/App
  heron sdk --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
			return runSDK(cmd, e, dir, list)
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List every installed SDK")

	return cmd
}

func runSDK(cmd *cobra.Command, e *env, dir string, list bool) error {
	cfg, log, err := e.settings(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	prev := output.SetOutput(cmd.OutOrStdout())
	defer output.SetOutput(prev)

	locator := e.locator(cfg, log)
	inst, err := locator.Locate(ctx, dir)
	if err != nil {
		return fmt.Errorf("locating SDK: %w", err)
	}

	if list {
		installed, err := locator.ListSDKs(ctx)
		if err != nil {
			return err
		}
		for _, s := range installed {
			marker := "  "
			if s.Version == inst.Version {
				marker = "* "
			}
			output.Step(marker + s.Version + " [" + s.Root + "]")
		}
		return nil
	}

	output.Success(inst.Name)
	output.Step("dotnet:  " + inst.DotNetPath)
	output.Step("SDK:     " + inst.SDKPath)
	if inst.Pin != "" {
		output.Step(fmt.Sprintf("Pinned:  %s (%s)", inst.Pin, inst.PinFile))
	}
	if !inst.SupportsEvaluation() {
		output.Warn(fmt.Sprintf("SDK %s cannot evaluate projects; %s or newer is required", inst.Version, discovery.MinimumVersion))
	}

	resolver := sdks.NewResolver(inst, sdks.Options{SdksPath: cfg.MSBuild.SdksPath, Fs: e.fs})
	if path := resolver.SdksPath(); path != "" {
		output.Step(fmt.Sprintf("Sdks:    %s (%s)", path, resolver.Source()))
	}
	for _, d := range resolver.Diagnostics() {
		output.Warn(d.Error())
	}
	return nil
}
