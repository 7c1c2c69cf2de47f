package command

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	surveyterminal "github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/scopeconfig"
	"go.jetpack.io/kubescope/scopecli/flags"
	"golang.org/x/sys/unix"
)

// cmdOptions is what the commands need from the outside world. Tests replace
// it with mock.CmdOptions.
type cmdOptions interface {
	AdditionalCommands() []*cobra.Command
	Fs() afero.Fs
	NewKlient(cfg *scopeconfig.Config) (*reaktor.Reaktor, error)
	RootCommand() *cobra.Command
	RootFlags() *flags.RootCmdFlags
}

// This is global for now (for expediency). We could pass these options down
// to every function that needs them.
var cmdOpts cmdOptions

func registerRootCmdFlags(cmd *cobra.Command) {
	f := cmdOpts.RootFlags()
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "d", false, "print debug output")
	cmd.PersistentFlags().StringVar(
		&f.ConfigPath,
		"config",
		"",
		"path to the kubescope config file (default $HOME/.kubescope/config.yaml)",
	)
	cmd.PersistentFlags().StringVar(&f.KubeConfig, "kubeconfig", "", "path to the kubeconfig file")
	cmd.PersistentFlags().StringVar(&f.Context, "context", "", "kubeconfig context to use")
	cmd.PersistentFlags().StringVarP(&f.Namespace, "namespace", "n", "", "namespace to operate in")
}

func NewRootCmd(opts cmdOptions) *cobra.Command {
	cmdOpts = opts
	rootCmd := &cobra.Command{
		Use:   "kubescope",
		Short: "Create, use and tear down Kubernetes pods and deployments",
		Long: "kubescope creates a pod or deployment from a manifest, waits until it is " +
			"ready, lets you exec into it and read its logs, and deletes it again.",
		// Usage is still printed for --help, not for every error.
		SilenceUsage: true,
		// Execute prints the error.
		SilenceErrors:     true,
		PersistentPreRunE: persistentPreRunE,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.WithStack(cmd.Help())
		},
	}

	rootCmd.AddCommand(
		configCmd(),
		createCmd(),
		deleteCmd(),
		execCmd(),
		getCmd(),
		listCmd(),
		logsCmd(),
		runCmd(),
		updateCmd(),
		versionCmd(),
		waitCmd(),
	)
	rootCmd.AddCommand(cmdOpts.AdditionalCommands()...)

	registerRootCmdFlags(rootCmd)
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	return rootCmd
}

// Execute is the entry point for CLI app.
func Execute(ctx context.Context, opts cmdOptions) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	err := opts.RootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}
	err = withUserMessage(err)

	if opts.RootFlags().Debug {
		stackTrace := errorutil.RootStackTrace(err)
		errChainMsg := fmt.Sprintf("Error chain is:\n\t %s.\n\n", err.Error())
		if stackTrace != nil {
			log.Fatalf("%sStacktrace:\n%+v\n", errChainMsg, stackTrace)
		}
		log.Fatalf("%sFailed to get Stacktrace:\n%+v\n", errChainMsg, errors.Cause(err))
	}

	// ctrl+c is not a failure of the command, so it gets a short message
	if errors.Is(err, context.Canceled) || errors.Is(err, surveyterminal.InterruptErr) {
		fmt.Println("ABORT: Operation cancelled by user interruption.")
		stop()
		os.Exit(1)
	}

	if msg := errorutil.GetUserErrorMessage(err); msg != "" {
		color.Red("\nError: %s\n\nCaused by:\n\n %s\n\nRun with --debug for more information", msg, err)
		os.Exit(1)
	}
	log.Fatalf(
		"ABORT: There was an error. The cause is:\n\t %s. \nRun with --debug for more information",
		errors.Cause(err),
	)
}

func persistentPreRunE(cmd *cobra.Command, args []string) error {
	if cmdOpts.RootFlags().Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		// the terminal output covers progress; library logs are for --debug
		logrus.SetLevel(logrus.WarnLevel)
	}
	return nil
}
