package reaktor_test

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.jetpack.io/kubescope/pkg/manifest"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/clustertest"
	"go.jetpack.io/kubescope/pkg/reaktor/komponents"
	"go.jetpack.io/kubescope/pkg/reaktor/reaktortest"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilrand "k8s.io/apimachinery/pkg/util/rand"
)

func podManifest(t *testing.T, name string) *unstructured.Unstructured {
	u, err := reaktor.ToManifest(&komponents.Pod{
		Name:      name,
		Namespace: reaktortest.Namespace,
		Image:     "busybox",
		Command:   []string{"sleep", "3600"},
	})
	require.NoError(t, err)
	return u
}

func TestCreateValidatesBeforeCalling(t *testing.T) {
	req := require.New(t)
	cluster := reaktortest.New()

	u := podManifest(t, "sample-pod")
	unstructured.RemoveNestedField(u.Object, "metadata", "namespace")

	_, err := cluster.Reaktor.Create(context.Background(), u)
	req.True(manifest.IsValidationError(err))
	req.Empty(cluster.Actions())
}

func TestCreateGetUpdate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cluster := reaktortest.New()

	created, err := cluster.Reaktor.Create(ctx, podManifest(t, "sample-pod"))
	req.NoError(err)
	req.Equal(reaktortest.UIDFor("sample-pod"), created.GetUID())

	_, err = cluster.Reaktor.Create(ctx, podManifest(t, "sample-pod"))
	req.True(reaktor.IsAPIError(err))
	req.True(apierrors.IsAlreadyExists(err))

	updated, err := cluster.Reaktor.Update(ctx, reaktor.PodGVR(), "sample-pod", reaktortest.Namespace,
		map[string]any{"metadata": map[string]any{"labels": map[string]any{"tier": "test"}}})
	req.NoError(err)
	req.Equal(map[string]string{"tier": "test"}, updated.GetLabels())

	got, err := cluster.Reaktor.Get(ctx, reaktor.PodGVR(), "sample-pod", reaktortest.Namespace)
	req.NoError(err)
	req.Equal("test", got.GetLabels()["tier"])

	list, err := cluster.Reaktor.List(ctx, reaktor.PodGVR(), reaktortest.Namespace, metav1.ListOptions{})
	req.NoError(err)
	req.Len(list.Items, 1)
}

func TestUpdateRejectsBadPatch(t *testing.T) {
	cluster := reaktortest.New()
	for _, patch := range []any{nil, "[1, 2]", []byte("not json"), "null"} {
		_, err := cluster.Reaktor.Update(context.Background(), reaktor.PodGVR(), "p", reaktortest.Namespace, patch)
		require.True(t, manifest.IsValidationError(err), "patch %v", patch)
	}
	require.Empty(t, cluster.Actions())
}

func TestDeleteMissing(t *testing.T) {
	req := require.New(t)
	cluster := reaktortest.New()

	err := cluster.Reaktor.Delete(context.Background(), reaktor.PodGVR(), "sample-pod", reaktortest.Namespace)
	req.True(reaktor.IsNotFound(err))

	var nf *reaktor.NotFoundError
	req.True(errors.As(err, &nf))
	req.Equal("Pod/default/sample-pod", nf.Ref.String())
	req.True(apierrors.IsNotFound(err))

	_, err = cluster.Reaktor.Get(context.Background(), reaktor.PodGVR(), "sample-pod", reaktortest.Namespace)
	req.True(reaktor.IsNotFound(err))
}

func TestLogs(t *testing.T) {
	req := require.New(t)
	cluster := reaktortest.New(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "sample-pod", Namespace: reaktortest.Namespace},
	})

	tail := int64(10)
	stream, err := cluster.Reaktor.Logs(context.Background(), reaktortest.Namespace, "sample-pod",
		reaktor.LogOptions{Container: "main", TailLines: &tail})
	req.NoError(err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	req.NoError(err)
	req.Equal("fake logs", string(data))
}

func TestExecNeedsRESTConfig(t *testing.T) {
	cluster := reaktortest.New()
	err := cluster.Reaktor.Exec(context.Background(), reaktor.ExecOptions{
		Namespace: reaktortest.Namespace,
		Pod:       "sample-pod",
		Command:   []string{"ls"},
	})
	require.ErrorContains(t, err, "REST config")

	err = cluster.Reaktor.Exec(context.Background(), reaktor.ExecOptions{Pod: "sample-pod"})
	require.ErrorContains(t, err, "command is required")
}

func TestNamespaceDefaults(t *testing.T) {
	req := require.New(t)
	req.Equal(reaktortest.Namespace, reaktortest.New().Reaktor.Namespace())

	klient := reaktor.NewForClients(reaktor.Clients{})
	req.Equal("default", klient.Namespace())
}

type ClusterSuite struct {
	suite.Suite
	klient *reaktor.Reaktor
}

func TestClusterSuite(t *testing.T) {
	clustertest.SkipUnlessEnabled(t)
	suite.Run(t, &ClusterSuite{})
}

func (suite *ClusterSuite) SetupSuite() {
	clustertest.MustInitTestCluster()
	suite.klient = clustertest.Klient()
}

func (suite *ClusterSuite) TestPodLifecycle() {
	ctx := context.Background()
	req := suite.Require()

	ns, cleanup, err := clustertest.Namespace(ctx, suite.klient)
	req.NoError(err)
	defer func() {
		req.NoError(cleanup())
	}()

	pod, err := reaktor.NewObject[corev1.Pod](suite.klient, podKind, mustDocument(suite.T(), &komponents.Pod{
		Name:      "test-pod-" + utilrand.String(5),
		Namespace: ns.Name,
		Image:     clustertest.DefaultImage(),
		Command:   []string{"sleep", "3600"},
	}))
	req.NoError(err)

	err = reaktor.WithResource(ctx, pod, func(ctx context.Context) error {
		req.Equal(corev1.PodRunning, pod.Model().Status.Phase)
		return nil
	})
	req.NoError(err)

	_, err = suite.klient.Get(ctx, reaktor.PodGVR(), pod.Name(), ns.Name)
	req.True(reaktor.IsNotFound(err))
}

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: dev
  cluster:
    server: https://dev.example.com:6443
- name: prod
  cluster:
    server: https://prod.example.com:6443
contexts:
- name: dev
  context:
    cluster: dev
    user: me
    namespace: sandbox
- name: prod
  context:
    cluster: prod
    user: me
current-context: dev
users:
- name: me
  user:
    token: secret
`

func TestNewWithConfigPicksContext(t *testing.T) {
	req := require.New(t)

	klient, err := reaktor.NewWithConfig(&reaktor.Config{KubeConfigYAML: testKubeconfig})
	req.NoError(err)
	req.Equal("sandbox", klient.Namespace())
	req.Equal("https://dev.example.com:6443", klient.RESTConfig().Host)

	klient, err = reaktor.NewWithConfig(&reaktor.Config{
		KubeConfigYAML: testKubeconfig,
		Context:        "prod",
		Namespace:      "team-a",
		QPS:            50,
		Burst:          100,
	})
	req.NoError(err)
	req.Equal("team-a", klient.Namespace())
	req.Equal("https://prod.example.com:6443", klient.RESTConfig().Host)
	req.Equal(float32(50), klient.RESTConfig().QPS)
}

func TestNewWithConfigRejectsConflictingSources(t *testing.T) {
	_, err := reaktor.NewWithConfig(&reaktor.Config{KubeConfigPath: "config", KubeConfigYAML: testKubeconfig})
	require.Error(t, err)

	_, err = reaktor.NewWithConfig(&reaktor.Config{KubeConfigYAML: testKubeconfig, QPS: -1})
	require.Error(t, err)
}
