package kubescope

import (
	"context"
	"strings"

	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/pkg/manifest"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/kubedeployments"
	"go.jetpack.io/kubescope/pkg/reaktor/kubepods"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	KindPod        = "Pod"
	KindDeployment = "Deployment"
)

// Managed is what pods and deployments have in common.
type Managed interface {
	reaktor.Scoped
	Name() string
	Namespace() string
	Kind() reaktor.Kind
	Read(ctx context.Context) error
	Update(ctx context.Context, patch any) error
	Observed() *unstructured.Unstructured
	ToPretty() string
}

var (
	_ Managed = (*kubepods.Pod)(nil)
	_ Managed = (*kubedeployments.Deployment)(nil)
)

// ParseKind accepts the names kubectl accepts for pods and deployments and
// returns the canonical kind.
func ParseKind(s string) (string, error) {
	switch strings.ToLower(s) {
	case "pod", "pods", "po":
		return KindPod, nil
	case "deployment", "deployments", "deploy":
		return KindDeployment, nil
	}
	return "", errorutil.NewUserErrorf("unsupported kind %q: must be one of pod, deployment", s)
}

// NewManaged builds the managed object for doc, dispatching on its kind.
func NewManaged(klient *reaktor.Reaktor, doc manifest.Document) (Managed, error) {
	var (
		m   Managed
		err error
	)
	switch doc.Kind() {
	case KindPod:
		m, err = kubepods.New(klient, doc, nil)
	case KindDeployment:
		m, err = kubedeployments.New(klient, doc, nil)
	default:
		return nil, errorutil.NewUserErrorf("unsupported kind %q: must be Pod or Deployment", doc.Kind())
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func Get(ctx context.Context, klient *reaktor.Reaktor, kind, ns, name string) (Managed, error) {
	var (
		m   Managed
		err error
	)
	switch kind {
	case KindPod:
		m, err = kubepods.Get(ctx, klient, ns, name)
	case KindDeployment:
		m, err = kubedeployments.Get(ctx, klient, ns, name)
	default:
		return nil, errorutil.NewUserErrorf("unsupported kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func List(ctx context.Context, klient *reaktor.Reaktor, kind, ns string, opts metav1.ListOptions) ([]Managed, error) {
	var out []Managed
	switch kind {
	case KindPod:
		pods, err := kubepods.List(ctx, klient, ns, opts)
		if err != nil {
			return nil, err
		}
		for _, p := range pods {
			out = append(out, p)
		}
	case KindDeployment:
		deployments, err := kubedeployments.List(ctx, klient, ns, opts)
		if err != nil {
			return nil, err
		}
		for _, d := range deployments {
			out = append(out, d)
		}
	default:
		return nil, errorutil.NewUserErrorf("unsupported kind %q", kind)
	}
	return out, nil
}
