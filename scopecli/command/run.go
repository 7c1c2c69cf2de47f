package command

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/kubescope"
)

type manifestFlags struct {
	file      string
	overrides []string
	envFile   string
}

func registerManifestFlags(cmd *cobra.Command, f *manifestFlags) {
	cmd.Flags().StringVarP(&f.file, "filename", "f", "", "manifest of the pod or deployment (YAML or JSON)")
	cmd.Flags().StringArrayVar(
		&f.overrides,
		"set-file",
		nil,
		"manifest fragment merged onto the manifest; can be repeated",
	)
	cmd.Flags().StringVar(&f.envFile, "env-file", "", ".env file whose variables are set on every container")
	_ = cmd.MarkFlagRequired("filename")
}

func (f *manifestFlags) options(s *session) kubescope.ManifestOptions {
	return kubescope.ManifestOptions{
		Path:             f.file,
		Overrides:        f.overrides,
		EnvFile:          f.envFile,
		DefaultNamespace: s.namespace,
	}
}

func runCmd() *cobra.Command {
	mf := &manifestFlags{}
	var (
		exec           []string
		container      string
		logs           bool
		noRequireReady bool
	)

	cmd := &cobra.Command{
		Use:   "run -f MANIFEST",
		Short: "Creates a pod or deployment, uses it and deletes it again",
		Long: heredoc.Doc(`
			Creates the pod or deployment described by the manifest and waits until it
			is ready (pods: running, deployments: all replicas available). Then runs the
			--exec commands in it one by one, prints its logs if --logs is given, and
			finally deletes it and waits until it is gone.

			The resource is deleted even if a command fails or kubescope is interrupted.
		`),
		Example: heredoc.Doc(`
			kubescope run -f pod.yaml --exec "ip a" --exec "sh -c 'echo $HOME'"
			kubescope run -f deployment.yaml --set-file replicas.yaml --logs
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return s.scope.Run(s.ctx, kubescope.RunOptions{
				ManifestOptions: mf.options(s),
				Exec:            exec,
				Container:       container,
				Logs:            logs,
				Timeout:         s.cfg.Timeout,
				DeleteTimeout:   s.cfg.DeleteTimeout,
				AllowUnready:    noRequireReady,
			})
		},
	}

	registerManifestFlags(cmd, mf)
	cmd.Flags().StringArrayVar(&exec, "exec", nil, "command to run in the pod once it is ready; can be repeated")
	cmd.Flags().StringVarP(&container, "container", "c", "", "container to exec into and read logs from")
	cmd.Flags().BoolVar(&logs, "logs", false, "print the logs before deleting")
	cmd.Flags().Duration("timeout", 0, "how long to wait until ready (default per kind)")
	cmd.Flags().Duration("delete-timeout", 0, "how long to wait for the deletion (default per kind)")
	cmd.Flags().BoolVar(
		&noRequireReady,
		"no-require-ready",
		false,
		"run the commands even if the resource did not become ready",
	)
	return cmd
}
