package command

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/kubescope"
	"go.jetpack.io/kubescope/pkg/reaktor/kubedeployments"
	"go.jetpack.io/kubescope/pkg/reaktor/kubepods"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/duration"
	"k8s.io/kubectl/pkg/util/podutils"
	"sigs.k8s.io/yaml"
)

func getCmd() *cobra.Command {
	output := ""

	cmd := &cobra.Command{
		Use:     "get (pod|deployment) NAME",
		Short:   "Prints a pod or deployment",
		Example: "  kubescope get pod sample-pod -o yaml",
		Args:    cobra.ExactArgs(2),
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

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				b, err := json.MarshalIndent(obj.Observed().Object, "", "  ")
				if err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintln(out, string(b))
			case "yaml":
				b, err := yaml.Marshal(obj.Observed().Object)
				if err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprint(out, string(b))
			case "":
				switch o := obj.(type) {
				case *kubepods.Pod:
					printTable(out, podHeader, [][]string{podRow(o)})
				case *kubedeployments.Deployment:
					printTable(out, deploymentHeader, [][]string{deploymentRow(o)})
				}
			default:
				return errorutil.NewUserErrorf("unknown output format %q: must be json or yaml", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: json or yaml")
	return cmd
}

var (
	podHeader        = []string{"name", "ready", "status", "node", "age"}
	deploymentHeader = []string{"name", "ready", "up-to-date", "available", "age"}
)

func podRow(p *kubepods.Pod) []string {
	pod := p.Model()
	ready := "false"
	if podutils.IsPodReady(pod) {
		ready = "true"
	}
	return []string{pod.Name, ready, podStatus(pod), pod.Spec.NodeName, age(pod.CreationTimestamp)}
}

// podStatus is the phase, or the reason the pod is stuck when it has one.
func podStatus(pod *corev1.Pod) string {
	if pod.DeletionTimestamp != nil {
		return "Terminating"
	}
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Waiting != nil && cs.State.Waiting.Reason != "" {
			return cs.State.Waiting.Reason
		}
	}
	if pod.Status.Phase == "" {
		return "Unknown"
	}
	return string(pod.Status.Phase)
}

func deploymentRow(d *kubedeployments.Deployment) []string {
	dep := d.Model()
	var replicas int32 = 1
	if dep.Spec.Replicas != nil {
		replicas = *dep.Spec.Replicas
	}
	return []string{
		dep.Name,
		fmt.Sprintf("%d/%d", dep.Status.ReadyReplicas, replicas),
		fmt.Sprint(dep.Status.UpdatedReplicas),
		fmt.Sprint(dep.Status.AvailableReplicas),
		age(dep.CreationTimestamp),
	}
}

func age(t metav1.Time) string {
	if t.IsZero() {
		return "<unknown>"
	}
	return duration.HumanDuration(time.Since(t.Time))
}
