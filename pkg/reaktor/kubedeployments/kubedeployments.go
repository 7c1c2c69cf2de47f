// Package kubedeployments manages deployments: create and wait until every
// replica is available, find their pods, tail their logs and delete them
// again.
package kubedeployments

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.jetpack.io/kubescope/pkg/manifest"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/kubepods"
	"go.jetpack.io/kubescope/pkg/reaktor/readiness"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

var Kind = reaktor.Kind{
	GroupVersionKind: reaktor.DeploymentGVK(),
	Resource:         reaktor.DeploymentGVR(),
	Ready:            readiness.DeploymentAvailable,
	CreateTimeout:    60 * time.Second,
	DeleteTimeout:    30 * time.Second,
}

type Deployment struct {
	*reaktor.Object[appsv1.Deployment]
	klient *reaktor.Reaktor
}

// New merges override onto defaults and validates the result. Either can be
// nil.
func New(klient *reaktor.Reaktor, defaults, override manifest.Document) (*Deployment, error) {
	doc, err := manifest.Build(defaults, override)
	if err != nil {
		return nil, err
	}
	obj, err := reaktor.NewObject[appsv1.Deployment](klient, Kind, doc)
	if err != nil {
		return nil, err
	}
	return &Deployment{Object: obj, klient: klient}, nil
}

func Get(ctx context.Context, klient *reaktor.Reaktor, ns, name string) (*Deployment, error) {
	u, err := klient.Get(ctx, Kind.Resource, name, ns)
	if err != nil {
		return nil, err
	}
	obj, err := reaktor.WrapObject[appsv1.Deployment](klient, Kind, u)
	if err != nil {
		return nil, err
	}
	return &Deployment{Object: obj, klient: klient}, nil
}

func List(
	ctx context.Context,
	klient *reaktor.Reaktor,
	ns string,
	opts metav1.ListOptions,
) ([]*Deployment, error) {
	list, err := klient.List(ctx, Kind.Resource, ns, opts)
	if err != nil {
		return nil, err
	}

	deployments := make([]*Deployment, 0, len(list.Items))
	for i := range list.Items {
		obj, err := reaktor.WrapObject[appsv1.Deployment](klient, Kind, &list.Items[i])
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, &Deployment{Object: obj, klient: klient})
	}
	return deployments, nil
}

// With creates d, waits until all replicas are available, calls body and
// deletes d again. See reaktor.WithResource.
func With(
	ctx context.Context,
	d *Deployment,
	body func(ctx context.Context, d *Deployment) error,
	opts ...reaktor.ScopeOption,
) error {
	return reaktor.WithResource(ctx, d, func(ctx context.Context) error {
		return body(ctx, d)
	}, opts...)
}

// Selector returns the deployment's pod selector in its string form.
func (d *Deployment) Selector() (string, error) {
	sel := d.Model().Spec.Selector
	if sel == nil {
		return "", errors.Errorf("deployment %s has no selector", d.NamespacedName())
	}
	selector, err := metav1.LabelSelectorAsSelector(sel)
	if err != nil {
		return "", errors.Wrapf(err, "deployment %s has an invalid selector", d.NamespacedName())
	}
	return selector.String(), nil
}

// Pods lists the pods currently matched by the deployment's selector.
func (d *Deployment) Pods(ctx context.Context) ([]*kubepods.Pod, error) {
	selector, err := d.Selector()
	if err != nil {
		return nil, err
	}
	return kubepods.List(ctx, d.klient, d.Namespace(), metav1.ListOptions{LabelSelector: selector})
}
