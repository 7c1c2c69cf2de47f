package kubescope

import (
	"context"
	"time"

	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/kubedeployments"
	"go.jetpack.io/kubescope/pkg/reaktor/kubepods"
	"go.jetpack.io/kubescope/pkg/termlog"
)

type LogsOptions struct {
	Kind      string
	Namespace string
	Name      string
	Container string
	Follow    bool
	TailLines *int64
	Since     time.Duration
}

// Logs prints the logs of an existing pod or deployment. Pods print one
// section per container; following a pod requires a single container.
func (s *Scope) Logs(ctx context.Context, opts LogsOptions) error {
	obj, err := Get(ctx, s.klient, opts.Kind, opts.Namespace, opts.Name)
	if err != nil {
		return err
	}
	log := termlog.FromContext(ctx)

	switch o := obj.(type) {
	case *kubedeployments.Deployment:
		return o.TailLogs(ctx, kubedeployments.TailOptions{
			KubeConfig: s.kubeConfig,
			Context:    s.kubeContext,
			Container:  opts.Container,
			Follow:     opts.Follow,
			TailLines:  opts.TailLines,
			Since:      opts.Since,
			Out:        log,
			ErrOut:     log,
		})
	case *kubepods.Pod:
		containers := o.Containers()
		if opts.Container != "" {
			containers = []string{opts.Container}
		}
		if opts.Follow && len(containers) > 1 {
			return errorutil.NewUserErrorf(
				"pod %s has %d containers, pick one with -c to follow its logs",
				o.NamespacedName(), len(containers))
		}

		logOpts := reaktor.LogOptions{Follow: opts.Follow, TailLines: opts.TailLines, Since: opts.Since}
		for _, c := range containers {
			if len(containers) > 1 {
				log.HeaderPrintf("%s", c)
			}
			if err := copyLogs(ctx, log, o, c, logOpts); err != nil {
				return err
			}
		}
	}
	return nil
}
