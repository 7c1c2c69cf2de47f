package command

import (
	"time"

	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/kubescope"
)

func logsCmd() *cobra.Command {
	var container string
	follow := false
	tail := int64(-1)
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "logs (pod|deployment) NAME",
		Short: "Prints the logs of a pod or of every pod of a deployment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kubescope.ParseKind(args[0])
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			opts := kubescope.LogsOptions{
				Kind:      kind,
				Namespace: s.namespace,
				Name:      args[1],
				Container: container,
				Follow:    follow,
				Since:     since,
			}
			if tail >= 0 {
				opts.TailLines = &tail
			}
			return s.scope.Logs(s.ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&container, "container", "c", "", "only print this container")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream the logs until interrupted")
	cmd.Flags().Int64Var(&tail, "tail", tail, "lines to print from the end of the log, -1 for all")
	cmd.Flags().DurationVar(&since, "since", 0, "only print lines newer than this, e.g. 5m")
	return cmd
}
