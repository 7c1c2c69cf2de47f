package command

import (
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/pkg/buildstamp"
	"go.jetpack.io/kubescope/pkg/termlog"
	"go.jetpack.io/kubescope/scopecli/terminal"
)

const binaryName = "kubescope"

func versionCmd() *cobra.Command {
	verboseFlag := false
	shortFlag := false

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Prints the version number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := termlog.New(cmd.OutOrStdout(), terminal.IsInteractive(cmd.OutOrStdout()))
			v := buildstamp.Version()
			if shortFlag {
				log.Println(v)
				return nil
			}
			log.Printf("%v %v\n", binaryName, v)
			if verboseFlag {
				buildstamp.PrintVerboseVersion(log)
			}
			return nil
		},
	}
	versionCmd.Flags().BoolVarP(
		&verboseFlag,
		"verbose",
		"v",
		false, // value
		"Set to true for verbose output",
	)
	versionCmd.Flags().BoolVarP(
		&shortFlag,
		"short",
		"s",
		false, // value
		"Set to true for short output",
	)
	return versionCmd
}
