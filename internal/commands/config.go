package commands

import (
	"fmt"

	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/input"
	"github.com/simonhull/heron/pkg/output"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage heron.yml",
	}

	cmd.AddCommand(newConfigInitCmd(e))
	cmd.AddCommand(newConfigShowCmd(e))

	return cmd
}

func newConfigInitCmd(e *env) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a heron.yml with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")

			prev := output.SetOutput(cmd.OutOrStdout())
			defer output.SetOutput(prev)

			exists, err := afero.Exists(e.fs, path)
			if err != nil {
				return err
			}
			if exists && !force {
				if !input.ConfirmFrom(e.stdin, cmd.OutOrStdout(), path+" exists. Overwrite?", false) {
					output.Info("Left " + path + " unchanged")
					return nil
				}
			}

			if err := config.Save(e.fs, path, config.Default()); err != nil {
				return err
			}
			output.Success("Wrote " + path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file without asking")

	return cmd
}

func newConfigShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Prints heron.yml merged with defaults and HERON_* environment overrides.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := e.settings(cmd)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
