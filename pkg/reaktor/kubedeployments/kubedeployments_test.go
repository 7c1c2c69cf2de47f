package kubedeployments_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.jetpack.io/kubescope/pkg/manifest"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/komponents"
	"go.jetpack.io/kubescope/pkg/reaktor/kubedeployments"
	"go.jetpack.io/kubescope/pkg/reaktor/reaktortest"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
)

func nginx(t *testing.T) manifest.Document {
	doc, err := reaktor.ToDocument(&komponents.Deployment{
		Name:      "nginx-deployment",
		Namespace: reaktortest.Namespace,
		Image:     "nginx:1.14.2",
		Replicas:  3,
	})
	require.NoError(t, err)
	return doc
}

func TestWithWaitsForAllReplicas(t *testing.T) {
	req := require.New(t)
	cluster := reaktortest.New()
	cluster.QueueWatch("deployments",
		reaktortest.Event(watch.Modified, reaktortest.Deployment("nginx-deployment", 3, 2)),
		reaktortest.Event(watch.Modified, reaktortest.Deployment("nginx-deployment", 3, 3)),
	)
	cluster.QueueWatch("deployments",
		reaktortest.Event(watch.Deleted, reaktortest.Deployment("nginx-deployment", 3, 3)),
	)

	d, err := kubedeployments.New(cluster.Reaktor, nginx(t), nil)
	req.NoError(err)
	req.EqualValues(3, *d.Model().Spec.Replicas)

	err = kubedeployments.With(context.Background(), d, func(ctx context.Context, d *kubedeployments.Deployment) error {
		req.EqualValues(3, d.Model().Status.AvailableReplicas)
		return nil
	})
	req.NoError(err)
	req.Len(cluster.ActionsOf("delete"), 1)
}

func TestWithNotReady(t *testing.T) {
	cluster := reaktortest.New()
	cluster.QueueClosedWatch("deployments",
		reaktortest.Event(watch.Modified, reaktortest.Deployment("nginx-deployment", 3, 2)),
	)
	cluster.QueueWatch("deployments",
		reaktortest.Event(watch.Deleted, reaktortest.Deployment("nginx-deployment", 3, 2)),
	)

	d, err := kubedeployments.New(cluster.Reaktor, nginx(t), nil)
	require.NoError(t, err)

	err = kubedeployments.With(context.Background(), d, func(context.Context, *kubedeployments.Deployment) error {
		t.Fatal("body must not run")
		return nil
	})
	assert.True(t, reaktor.IsNotReady(err), "%v", err)
	assert.Len(t, cluster.ActionsOf("delete"), 1)
}

func TestNewRejectsPodManifest(t *testing.T) {
	cluster := reaktortest.New()
	_, err := kubedeployments.New(cluster.Reaktor, nginx(t), manifest.Document{"apiVersion": "v1", "kind": "Pod"})
	assert.True(t, manifest.IsValidationError(err), "%v", err)
}

func TestPodsUsesSelector(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cluster := reaktortest.New()

	d, err := kubedeployments.New(cluster.Reaktor, nginx(t), nil)
	req.NoError(err)
	_, err = d.Create(ctx, reaktor.NoWait())
	req.NoError(err)

	for name, labels := range map[string]map[string]string{
		"nginx-deployment-abc12": {"app": "nginx-deployment"},
		"unrelated":              {"app": "other"},
	} {
		doc, err := reaktor.ToDocument(&komponents.Pod{
			Name:      name,
			Namespace: reaktortest.Namespace,
			Image:     "nginx:1.14.2",
			Labels:    labels,
		})
		req.NoError(err)
		_, err = cluster.Reaktor.Create(ctx, doc.Unstructured())
		req.NoError(err)
	}

	selector, err := d.Selector()
	req.NoError(err)
	req.Equal("app=nginx-deployment", selector)

	pods, err := d.Pods(ctx)
	req.NoError(err)
	req.Len(pods, 1)
	req.Equal("nginx-deployment-abc12", pods[0].Name())
}

func TestGetAndList(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cluster := reaktortest.New()

	d, err := kubedeployments.New(cluster.Reaktor, nginx(t), nil)
	req.NoError(err)
	_, err = d.Create(ctx, reaktor.NoWait())
	req.NoError(err)

	got, err := kubedeployments.Get(ctx, cluster.Reaktor, reaktortest.Namespace, "nginx-deployment")
	req.NoError(err)
	req.Equal(reaktortest.UIDFor("nginx-deployment"), got.UID())

	list, err := kubedeployments.List(ctx, cluster.Reaktor, reaktortest.Namespace, metav1.ListOptions{
		LabelSelector: "app=nginx-deployment",
	})
	req.NoError(err)
	req.Len(list, 1)

	list, err = kubedeployments.List(ctx, cluster.Reaktor, reaktortest.Namespace, metav1.ListOptions{
		LabelSelector: "app=nope",
	})
	req.NoError(err)
	req.Empty(list)
}
