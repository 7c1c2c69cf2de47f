package command

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/kubescope"
	"go.jetpack.io/kubescope/pkg/reaktor"
)

func createCmd() *cobra.Command {
	mf := &manifestFlags{}
	noWait := false

	cmd := &cobra.Command{
		Use:   "create -f MANIFEST",
		Short: "Creates a pod or deployment and waits until it is ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			doc, err := s.scope.LoadManifest(mf.options(s))
			if err != nil {
				return err
			}
			obj, err := kubescope.NewManaged(s.klient, doc)
			if err != nil {
				return err
			}

			var outcome reaktor.Outcome
			err = s.log.WithSpinner("Creating "+doc.Kind()+" "+obj.NamespacedName(), func() error {
				var createErr error
				outcome, createErr = obj.Create(s.ctx, waitOptions(s.cfg.Timeout, noWait)...)
				return createErr
			})
			if err != nil {
				return err
			}

			switch outcome {
			case reaktor.NotAwaited:
				s.log.HeaderPrintf("%s %s created", doc.Kind(), obj.NamespacedName())
			case reaktor.Ready:
				s.log.HeaderPrintf("%s %s is ready", doc.Kind(), obj.NamespacedName())
			default:
				return errors.WithStack(&reaktor.NotReadyError{Object: obj.NamespacedName(), Outcome: outcome})
			}
			return nil
		},
	}

	registerManifestFlags(cmd, mf)
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "return as soon as the resource is accepted")
	cmd.Flags().Duration("timeout", 0, "how long to wait until ready (default per kind)")
	return cmd
}
