package reaktor

import (
	"context"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
)

type LogOptions struct {
	Container  string
	Follow     bool
	TailLines  *int64
	Since      time.Duration
	Timestamps bool
	Previous   bool
}

// Logs opens the log stream of a pod's container. The caller closes it.
func (k *Reaktor) Logs(ctx context.Context, ns, pod string, opts LogOptions) (io.ReadCloser, error) {
	podLogOpts := &corev1.PodLogOptions{
		Container:  opts.Container,
		Follow:     opts.Follow,
		TailLines:  opts.TailLines,
		Timestamps: opts.Timestamps,
		Previous:   opts.Previous,
	}
	if opts.Since > 0 {
		seconds := int64(opts.Since.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		podLogOpts.SinceSeconds = &seconds
	}

	stream, err := k.clientset.CoreV1().Pods(ns).GetLogs(pod, podLogOpts).Stream(ctx)
	if err != nil {
		return nil, wrapAPIError("logs", ObjectRef{Kind: "Pod", Namespace: ns, Name: pod}, err)
	}
	return stream, nil
}
