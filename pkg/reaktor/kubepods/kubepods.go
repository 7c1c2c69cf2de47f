// Package kubepods manages single pods: create and wait until running,
// exec into them, read their logs and delete them again.
//
//	pod, err := kubepods.New(klient, defaults, manifest.Document{
//	  "metadata": map[string]any{"name": "sample-pod"},
//	})
//	err = kubepods.With(ctx, pod, func(ctx context.Context, pod *kubepods.Pod) error {
//	  out, _, err := pod.ExecOutput(ctx, "", "ip a")
//	  ...
//	})
package kubepods

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.jetpack.io/kubescope/pkg/manifest"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/readiness"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/cli-runtime/pkg/genericclioptions"
)

var Kind = reaktor.Kind{
	GroupVersionKind: reaktor.PodGVK(),
	Resource:         reaktor.PodGVR(),
	Ready:            readiness.PodRunning,
	CreateTimeout:    60 * time.Second,
	DeleteTimeout:    60 * time.Second,
}

type Pod struct {
	*reaktor.Object[corev1.Pod]
	klient *reaktor.Reaktor
}

// New merges override onto defaults and validates the result. Either can be
// nil.
func New(klient *reaktor.Reaktor, defaults, override manifest.Document) (*Pod, error) {
	doc, err := manifest.Build(defaults, override)
	if err != nil {
		return nil, err
	}
	obj, err := reaktor.NewObject[corev1.Pod](klient, Kind, doc)
	if err != nil {
		return nil, err
	}
	return &Pod{Object: obj, klient: klient}, nil
}

func Get(ctx context.Context, klient *reaktor.Reaktor, ns, name string) (*Pod, error) {
	u, err := klient.Get(ctx, Kind.Resource, name, ns)
	if err != nil {
		return nil, err
	}
	obj, err := reaktor.WrapObject[corev1.Pod](klient, Kind, u)
	if err != nil {
		return nil, err
	}
	return &Pod{Object: obj, klient: klient}, nil
}

func List(ctx context.Context, klient *reaktor.Reaktor, ns string, opts metav1.ListOptions) ([]*Pod, error) {
	list, err := klient.List(ctx, Kind.Resource, ns, opts)
	if err != nil {
		return nil, err
	}

	pods := make([]*Pod, 0, len(list.Items))
	for i := range list.Items {
		obj, err := reaktor.WrapObject[corev1.Pod](klient, Kind, &list.Items[i])
		if err != nil {
			return nil, err
		}
		pods = append(pods, &Pod{Object: obj, klient: klient})
	}
	return pods, nil
}

// With creates pod, waits until it is running, calls body and deletes the pod
// again. See reaktor.WithResource.
func With(
	ctx context.Context,
	pod *Pod,
	body func(ctx context.Context, pod *Pod) error,
	opts ...reaktor.ScopeOption,
) error {
	return reaktor.WithResource(ctx, pod, func(ctx context.Context) error {
		return body(ctx, pod)
	}, opts...)
}

// Containers returns the container names of the pod, in spec order.
func (p *Pod) Containers() []string {
	return lo.Map(p.Model().Spec.Containers, func(c corev1.Container, _ int) string {
		return c.Name
	})
}

// Exec runs command in container, splitting it with shell quoting rules
// ("sh -c 'echo $HOME'" is three words). An empty container means the pod's
// default container.
func (p *Pod) Exec(
	ctx context.Context,
	container string,
	command string,
	streams genericclioptions.IOStreams,
	tty bool,
) error {
	args, err := SplitCommand(command)
	if err != nil {
		return err
	}
	return p.ExecArgs(ctx, container, args, streams, tty)
}

// ExecArgs is Exec for a command that is already split into words.
func (p *Pod) ExecArgs(
	ctx context.Context,
	container string,
	args []string,
	streams genericclioptions.IOStreams,
	tty bool,
) error {
	if len(args) == 0 {
		return errors.New("command is empty")
	}
	if err := p.checkContainer(container); err != nil {
		return err
	}
	return p.klient.Exec(ctx, reaktor.ExecOptions{
		Namespace: p.Namespace(),
		Pod:       p.Name(),
		Container: container,
		Command:   args,
		Streams:   streams,
		TTY:       tty,
	})
}

// ExecOutput runs command in container and returns what it printed. A
// non-zero exit status is returned as a *reaktor.ExitError together with the
// output.
func (p *Pod) ExecOutput(ctx context.Context, container, command string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	err := p.Exec(ctx, container, command, genericclioptions.IOStreams{
		Out:    &stdout,
		ErrOut: &stderr,
	}, false)
	return stdout.String(), stderr.String(), err
}

// Logs opens the log stream of container. The caller closes it.
func (p *Pod) Logs(ctx context.Context, container string, opts reaktor.LogOptions) (io.ReadCloser, error) {
	if err := p.checkContainer(container); err != nil {
		return nil, err
	}
	opts.Container = container
	return p.klient.Logs(ctx, p.Namespace(), p.Name(), opts)
}

func (p *Pod) checkContainer(container string) error {
	containers := p.Containers()
	if container == "" || len(containers) == 0 || lo.Contains(containers, container) {
		return nil
	}
	return errors.Errorf("pod %s has no container %q (containers: %v)", p.NamespacedName(), container, containers)
}

// SplitCommand splits a command line the way a POSIX shell would, without
// expanding variables.
func SplitCommand(command string) ([]string, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse command %q", command)
	}
	if len(args) == 0 {
		return nil, errors.New("command is empty")
	}
	return args, nil
}
