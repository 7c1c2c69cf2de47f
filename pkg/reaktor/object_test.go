package reaktor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.jetpack.io/kubescope/pkg/manifest"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/komponents"
	"go.jetpack.io/kubescope/pkg/reaktor/readiness"
	"go.jetpack.io/kubescope/pkg/reaktor/reaktortest"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/watch"
)

var podKind = reaktor.Kind{
	GroupVersionKind: reaktor.PodGVK(),
	Resource:         reaktor.PodGVR(),
	Ready:            readiness.PodRunning,
	CreateTimeout:    5 * time.Second,
	DeleteTimeout:    5 * time.Second,
}

func mustDocument(t *testing.T, r reaktor.Resource) manifest.Document {
	doc, err := reaktor.ToDocument(r)
	require.NoError(t, err)
	return doc
}

func newSamplePod(t *testing.T, cluster *reaktortest.Cluster) *reaktor.Object[corev1.Pod] {
	pod, err := reaktor.NewObject[corev1.Pod](cluster.Reaktor, podKind, mustDocument(t, &komponents.Pod{
		Name:      "sample-pod",
		Namespace: reaktortest.Namespace,
		Image:     "busybox",
		Command:   []string{"sleep", "3600"},
	}))
	require.NoError(t, err)
	return pod
}

func TestNewObjectRejectsBadManifests(t *testing.T) {
	cluster := reaktortest.New()
	base := mustDocument(t, &komponents.Pod{Name: "sample-pod", Namespace: "default", Image: "busybox"})

	cases := map[string]manifest.Document{
		"no namespace": manifest.Merge(base, manifest.Document{"metadata": map[string]any{"namespace": ""}}),
		"bad name":     manifest.Merge(base, manifest.Document{"metadata": map[string]any{"name": "Not_A_Name"}}),
		"wrong kind":   manifest.Merge(base, manifest.Document{"apiVersion": "apps/v1", "kind": "Deployment"}),
		"typo":         manifest.Merge(base, manifest.Document{"spec": map[string]any{"restartPolicyy": "Never"}}),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reaktor.NewObject[corev1.Pod](cluster.Reaktor, podKind, doc)
			assert.True(t, manifest.IsValidationError(err), "%v", err)
		})
	}
	assert.Empty(t, cluster.Actions())
}

func TestObjectCreateWaitsForRunning(t *testing.T) {
	req := require.New(t)
	cluster := reaktortest.New()
	cluster.QueueWatch("pods",
		reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Pending")),
		reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Running")),
	)

	pod := newSamplePod(t, cluster)
	req.Equal("default/sample-pod", pod.NamespacedName())

	outcome, err := pod.Create(context.Background())
	req.NoError(err)
	req.Equal(reaktor.Ready, outcome)
	req.Equal(corev1.PodRunning, pod.Model().Status.Phase)
	req.Equal(reaktortest.UIDFor("sample-pod"), pod.UID())
	req.Contains(pod.ToPretty(), "    \"metadata\"")
	req.Contains(pod.String(), `"name":"sample-pod"`)
}

func TestObjectCreateNoWait(t *testing.T) {
	req := require.New(t)
	cluster := reaktortest.New()
	pod := newSamplePod(t, cluster)

	outcome, err := pod.Create(context.Background(), reaktor.NoWait())
	req.NoError(err)
	req.Equal(reaktor.NotAwaited, outcome)
	req.Equal("busybox", pod.Model().Spec.Containers[0].Image)
	req.Empty(cluster.ActionsOf("watch"))
}

func TestObjectCreateTimesOut(t *testing.T) {
	cluster := reaktortest.New()
	cluster.QueueWatch("pods",
		reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Pending")),
	)

	outcome, err := newSamplePod(t, cluster).Create(context.Background(), reaktor.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, reaktor.TimedOut, outcome)
}

func TestObjectCreateWithPredicate(t *testing.T) {
	cluster := reaktortest.New()
	ready := reaktortest.Pod("sample-pod", "Running")
	ready.Object["status"].(map[string]any)["conditions"] = []any{
		map[string]any{"type": "Ready", "status": "True"},
	}
	cluster.QueueWatch("pods",
		reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Running")),
		reaktortest.Event(watch.Modified, ready),
	)

	pod := newSamplePod(t, cluster)
	outcome, err := pod.Create(context.Background(), reaktor.WithPredicate(readiness.PodReady))
	require.NoError(t, err)
	assert.Equal(t, reaktor.Ready, outcome)
	assert.Len(t, pod.Model().Status.Conditions, 1)
}

func TestObjectReadUpdate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cluster := reaktortest.New()
	pod := newSamplePod(t, cluster)

	_, err := pod.Create(ctx, reaktor.NoWait())
	req.NoError(err)

	req.NoError(pod.Update(ctx, `{"metadata": {"labels": {"tier": "test"}}}`))
	req.Equal("test", pod.Model().Labels["tier"])

	_, err = cluster.Reaktor.Update(ctx, reaktor.PodGVR(), "sample-pod", reaktortest.Namespace,
		`{"metadata": {"labels": {"tier": "changed"}}}`)
	req.NoError(err)
	req.Equal("test", pod.Model().Labels["tier"])

	req.NoError(pod.Read(ctx))
	req.Equal("changed", pod.Model().Labels["tier"])
	req.Equal("changed", pod.Observed().GetLabels()["tier"])
	req.Nil(pod.Manifest()["metadata"].(map[string]any)["labels"])
}

func TestObjectDeleteWatchesFirst(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cluster := reaktortest.New()
	pod := newSamplePod(t, cluster)

	_, err := pod.Create(ctx, reaktor.NoWait())
	req.NoError(err)

	cluster.QueueWatch("pods",
		reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Running")),
		reaktortest.Event(watch.Deleted, reaktortest.Pod("sample-pod", "Running")),
	)
	outcome, err := pod.Delete(ctx)
	req.NoError(err)
	req.Equal(reaktor.Deleted, outcome)

	// the model is reset, the identity is not
	req.Empty(pod.Model().Name)
	req.Empty(pod.UID())
	req.Nil(pod.Observed())
	req.Equal("sample-pod", pod.Name())

	var verbs []string
	for _, a := range cluster.Actions() {
		verbs = append(verbs, a.GetVerb())
	}
	req.Equal([]string{"create", "watch", "delete"}, verbs)
}

func TestObjectDeleteMissing(t *testing.T) {
	req := require.New(t)
	cluster := reaktortest.New()
	w := cluster.QueueWatch("pods")

	outcome, err := newSamplePod(t, cluster).Delete(context.Background())
	req.True(reaktor.IsNotFound(err))
	req.Equal(reaktor.NotAwaited, outcome)
	req.True(w.IsStopped())
}

func TestObjectDeleteNoWait(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cluster := reaktortest.New()
	pod := newSamplePod(t, cluster)

	_, err := pod.Create(ctx, reaktor.NoWait())
	req.NoError(err)

	outcome, err := pod.Delete(ctx, reaktor.NoWait())
	req.NoError(err)
	req.Equal(reaktor.NotAwaited, outcome)
	req.Empty(pod.Model().Name)

	_, err = pod.Delete(ctx, reaktor.NoWait())
	req.True(reaktor.IsNotFound(err))
}

func TestWrapObjectIsLenient(t *testing.T) {
	req := require.New(t)
	cluster := reaktortest.New()

	u := reaktortest.Pod("sample-pod", "Running")
	u.Object["spec"] = map[string]any{"fieldFromTheFuture": true}

	pod, err := reaktor.WrapObject[corev1.Pod](cluster.Reaktor, podKind, u)
	req.NoError(err)
	req.Equal(corev1.PodRunning, pod.Model().Status.Phase)
	req.Equal(reaktortest.UIDFor("sample-pod"), pod.UID())
}
