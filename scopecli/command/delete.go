package command

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/kubescope"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/scopecli/terminal"
)

func deleteCmd() *cobra.Command {
	noWait := false
	yes := false

	cmd := &cobra.Command{
		Use:   "delete (pod|deployment) NAME",
		Short: "Deletes a pod or deployment and waits until it is gone",
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
			obj, err := kubescope.Get(s.ctx, s.klient, kind, s.namespace, args[1])
			if err != nil {
				return err
			}

			stdin, stdout, canPrompt := terminal.PromptFiles(cmd.InOrStdin(), cmd.OutOrStdout())
			if !yes && canPrompt {
				confirmed := false
				prompt := &survey.Confirm{Message: fmt.Sprintf("Delete %s %s?", kind, obj.NamespacedName())}
				if err := survey.AskOne(prompt, &confirmed, survey.WithStdio(stdin, stdout, cmd.ErrOrStderr())); err != nil {
					return errors.WithStack(err)
				}
				if !confirmed {
					return nil
				}
			}

			var outcome reaktor.Outcome
			err = s.log.WithSpinner("Deleting "+kind+" "+obj.NamespacedName(), func() error {
				var deleteErr error
				outcome, deleteErr = obj.Delete(s.ctx, waitOptions(s.cfg.DeleteTimeout, noWait)...)
				return deleteErr
			})
			if err != nil {
				return err
			}

			switch outcome {
			case reaktor.Deleted:
				s.log.HeaderPrintf("%s %s deleted", kind, obj.NamespacedName())
			case reaktor.NotAwaited:
				s.log.HeaderPrintf("%s %s is being deleted", kind, obj.NamespacedName())
			default:
				return errorutil.NewUserErrorf("deletion of %s %s was not confirmed: %s", kind, obj.NamespacedName(), outcome)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "return as soon as the deletion is accepted")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "don't ask for confirmation")
	cmd.Flags().Duration("delete-timeout", 0, "how long to wait for the deletion (default per kind)")
	return cmd
}
