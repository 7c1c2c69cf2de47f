package command

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/pkg/scopeconfig"
	"go.jetpack.io/kubescope/pkg/termlog"
	"go.jetpack.io/kubescope/scopecli/terminal"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Views or creates the kubescope config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.WithStack(cmd.Help())
		},
	}
	cmd.AddCommand(configViewCmd(), configInitCmd())
	return cmd
}

func configViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Prints the effective configuration",
		Long: "Prints the configuration after merging the defaults, the config file, " +
			"KUBESCOPE_* environment variables and flags.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := cfg.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return errors.WithStack(err)
		},
	}
}

func configInitCmd() *cobra.Command {
	force := false

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Writes a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cmdOpts.RootFlags().ConfigPath
			if path == "" {
				var err error
				if path, err = scopeconfig.DefaultPath(); err != nil {
					return err
				}
			}

			cfg := scopeconfig.Default()
			err := scopeconfig.Write(cmdOpts.Fs(), path, &cfg, force)
			if errors.Is(err, scopeconfig.ErrConfigExists) {
				return errorutil.AddUserMessagef(err, "%s already exists, use --force to overwrite it", path)
			}
			if err != nil {
				return err
			}
			termlog.New(cmd.OutOrStdout(), terminal.IsInteractive(cmd.OutOrStdout())).HeaderPrintf("Wrote %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
