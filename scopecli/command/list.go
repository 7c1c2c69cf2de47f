package command

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/kubescope"
	"go.jetpack.io/kubescope/pkg/reaktor/kubedeployments"
	"go.jetpack.io/kubescope/pkg/reaktor/kubepods"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func listCmd() *cobra.Command {
	opts := metav1.ListOptions{}

	cmd := &cobra.Command{
		Use:     "list (pods|deployments)",
		Aliases: []string{"ls"},
		Short:   "Lists pods or deployments",
		Example: "  kubescope list pods -l app=l1",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kubescope.ParseKind(args[0])
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch kind {
			case kubescope.KindPod:
				pods, err := kubepods.List(s.ctx, s.klient, s.namespace, opts)
				if err != nil {
					return err
				}
				printTable(out, podHeader, lo.Map(pods, func(p *kubepods.Pod, _ int) []string {
					return podRow(p)
				}))
			case kubescope.KindDeployment:
				deployments, err := kubedeployments.List(s.ctx, s.klient, s.namespace, opts)
				if err != nil {
					return err
				}
				printTable(out, deploymentHeader, lo.Map(
					deployments,
					func(d *kubedeployments.Deployment, _ int) []string { return deploymentRow(d) },
				))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.LabelSelector, "selector", "l", "", "label selector, e.g. app=l1")
	cmd.Flags().StringVar(&opts.FieldSelector, "field-selector", "", "field selector, e.g. status.phase=Running")
	return cmd
}
