package command

import (
	"strings"

	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/kubescope"
	"go.jetpack.io/kubescope/pkg/reaktor"
)

func waitCmd() *cobra.Command {
	condition := kubescope.ForReady

	cmd := &cobra.Command{
		Use:   "wait (pod|deployment) NAME --for CONDITION",
		Short: "Waits until a pod or deployment meets a condition",
		Long: "Waits until a pod or deployment meets a condition. CONDITION is one of " +
			"ready, running (pods only), containers-ready (pods only, every container reports ready), " +
			"current (all status checks pass) or deleted. " +
			"ready is what run and create wait for: a running pod or a fully available deployment.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kubescope.ParseKind(args[0])
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			opts := kubescope.WaitOptions{
				Kind:      kind,
				Namespace: s.namespace,
				Name:      args[1],
				For:       strings.ToLower(condition),
				Timeout:   s.cfg.Timeout,
			}
			var outcome reaktor.Outcome
			err = s.log.WithSpinner("Waiting for "+kind+" "+s.namespace+"/"+args[1], func() error {
				var waitErr error
				outcome, waitErr = s.scope.Wait(s.ctx, opts)
				return waitErr
			})
			if err != nil {
				return err
			}

			want := reaktor.Ready
			if opts.For == kubescope.ForDeleted {
				want = reaktor.Deleted
			}
			if outcome != want {
				return errorutil.NewUserErrorf("%s %s/%s: wanted %s, got %s", kind, s.namespace, args[1], want, outcome)
			}
			s.log.HeaderPrintf("%s %s/%s: %s", kind, s.namespace, args[1], outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&condition, "for", condition, "ready, running, containers-ready, current or deleted")
	cmd.Flags().Duration("timeout", 0, "how long to wait (default per kind)")
	return cmd
}
