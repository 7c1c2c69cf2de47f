package command

import (
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/pkg/reaktor/kubepods"
	"k8s.io/cli-runtime/pkg/genericclioptions"
)

func execCmd() *cobra.Command {
	var container string
	stdin := false
	tty := false

	cmd := &cobra.Command{
		Use:   "exec POD [-c CONTAINER] -- COMMAND [args...]",
		Short: "Runs a command in a container of a running pod",
		Example: `  kubescope exec sample-pod -- ls /
  kubescope exec sample-pod -c sidecar -it -- sh`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			pod, err := kubepods.Get(s.ctx, s.klient, s.namespace, args[0])
			if err != nil {
				return err
			}
			if container == "" && len(pod.Containers()) > 0 {
				container = pod.Containers()[0]
			}

			streams := genericclioptions.IOStreams{Out: cmd.OutOrStdout(), ErrOut: cmd.ErrOrStderr()}
			if stdin {
				streams.In = cmd.InOrStdin()
			}
			return pod.ExecArgs(s.ctx, container, args[1:], streams, tty)
		},
	}

	cmd.Flags().StringVarP(&container, "container", "c", "", "container to run in (default the first one)")
	cmd.Flags().BoolVarP(&stdin, "stdin", "i", false, "pass stdin to the container")
	cmd.Flags().BoolVarP(&tty, "tty", "t", false, "allocate a tty")
	return cmd
}
