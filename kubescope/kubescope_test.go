package kubescope_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/kubescope"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/reaktortest"
	"go.jetpack.io/kubescope/pkg/termlog"
	"k8s.io/apimachinery/pkg/watch"
)

const podYAML = `
apiVersion: v1
kind: Pod
metadata:
  name: sample-pod
  namespace: default
  labels:
    app: l1
spec:
  containers:
  - name: sleep
    image: busybox
    args: ["/bin/sh", "-c", "while true;do date;sleep 5; done"]
`

const deploymentYAML = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: nginx-deployment
  namespace: default
spec:
  replicas: 3
  selector:
    matchLabels:
      app: nginx
  template:
    metadata:
      labels:
        app: nginx
    spec:
      containers:
      - name: nginx
        image: nginx:1.14.2
`

type fixture struct {
	cluster *reaktortest.Cluster
	scope   *kubescope.Scope
	out     *bytes.Buffer
	ctx     context.Context
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	cluster := reaktortest.New()
	out := &bytes.Buffer{}
	return &fixture{
		cluster: cluster,
		scope:   kubescope.New(cluster.Reaktor, kubescope.WithFs(fs)),
		out:     out,
		ctx:     termlog.WithLogger(context.Background(), termlog.New(out, false)),
	}
}

func verbs(c *reaktortest.Cluster) []string {
	var out []string
	for _, a := range c.Actions() {
		out = append(out, a.GetVerb())
	}
	return out
}

func TestRunPodPrintsLogs(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, map[string]string{"pod.yaml": podYAML})
	f.cluster.QueueWatch("pods",
		reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Pending")),
		reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Running")),
	)
	f.cluster.QueueWatch("pods", reaktortest.Event(watch.Deleted, reaktortest.Pod("sample-pod", "Running")))

	err := f.scope.Run(f.ctx, kubescope.RunOptions{
		ManifestOptions: kubescope.ManifestOptions{Path: "pod.yaml"},
		Logs:            true,
	})
	req.NoError(err)

	req.Contains(f.out.String(), "# Creating Pod default/sample-pod\n")
	req.Contains(f.out.String(), "# Pod default/sample-pod is ready\n")
	req.Contains(f.out.String(), "# logs: sleep\nfake logs")
	req.Equal([]string{"create", "watch", "watch", "delete"}, verbs(f.cluster))
}

func TestRunExecFailureStillDeletes(t *testing.T) {
	f := newFixture(t, map[string]string{"pod.yaml": podYAML})
	f.cluster.QueueWatch("pods", reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Running")))
	f.cluster.QueueWatch("pods", reaktortest.Event(watch.Deleted, reaktortest.Pod("sample-pod", "Running")))

	err := f.scope.Run(f.ctx, kubescope.RunOptions{
		ManifestOptions: kubescope.ManifestOptions{Path: "pod.yaml"},
		Exec:            []string{"ip a"},
	})
	assert.ErrorContains(t, err, `exec "ip a"`)
	assert.Contains(t, f.out.String(), "# exec: ip a\n")
	assert.Len(t, f.cluster.ActionsOf("delete"), 1)
}

func TestRunNotReady(t *testing.T) {
	f := newFixture(t, map[string]string{"pod.yaml": podYAML})
	f.cluster.QueueClosedWatch("pods", reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Pending")))
	f.cluster.QueueWatch("pods", reaktortest.Event(watch.Deleted, reaktortest.Pod("sample-pod", "Pending")))

	err := f.scope.Run(f.ctx, kubescope.RunOptions{
		ManifestOptions: kubescope.ManifestOptions{Path: "pod.yaml"},
	})
	assert.True(t, reaktor.IsNotReady(err), "%v", err)
	assert.NotContains(t, f.out.String(), "is ready")
	assert.Len(t, f.cluster.ActionsOf("delete"), 1)
}

func TestRunDeploymentRejectsExec(t *testing.T) {
	f := newFixture(t, map[string]string{"deploy.yaml": deploymentYAML})

	err := f.scope.Run(f.ctx, kubescope.RunOptions{
		ManifestOptions: kubescope.ManifestOptions{Path: "deploy.yaml"},
		Exec:            []string{"nginx -v"},
	})
	assert.Equal(t, "--exec is only supported for pods, not Deployment", errorutil.GetUserErrorMessage(err))
	assert.Empty(t, f.cluster.Actions())
}

func TestRunDeployment(t *testing.T) {
	f := newFixture(t, map[string]string{"deploy.yaml": deploymentYAML})
	f.cluster.QueueWatch("deployments",
		reaktortest.Event(watch.Modified, reaktortest.Deployment("nginx-deployment", 3, 2)),
		reaktortest.Event(watch.Modified, reaktortest.Deployment("nginx-deployment", 3, 3)),
	)
	f.cluster.QueueWatch("deployments",
		reaktortest.Event(watch.Deleted, reaktortest.Deployment("nginx-deployment", 3, 3)),
	)

	err := f.scope.Run(f.ctx, kubescope.RunOptions{
		ManifestOptions: kubescope.ManifestOptions{Path: "deploy.yaml"},
	})
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "# Deployment default/nginx-deployment is ready\n")
}

func TestLoadManifest(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, map[string]string{
		"pod.yaml":      podYAML,
		"override.yaml": "metadata:\n  name: other-pod\n  labels:\n    tier: test\n",
		".env":          "GREETING=hello\n",
	})

	doc, err := f.scope.LoadManifest(kubescope.ManifestOptions{
		Path:      "pod.yaml",
		Overrides: []string{"override.yaml"},
		EnvFile:   ".env",
	})
	req.NoError(err)
	req.Equal("other-pod", doc.Name())
	req.Equal(map[string]any{"app": "l1", "tier": "test"}, doc["metadata"].(map[string]any)["labels"])

	container := doc["spec"].(map[string]any)["containers"].([]any)[0].(map[string]any)
	req.Equal([]any{map[string]any{"name": "GREETING", "value": "hello"}}, container["env"])

	_, err = f.scope.LoadManifest(kubescope.ManifestOptions{})
	req.Equal("a manifest file is required (-f)", errorutil.GetUserErrorMessage(err))

	_, err = f.scope.LoadManifest(kubescope.ManifestOptions{Path: "missing.yaml"})
	req.Contains(errorutil.GetUserErrorMessage(err), "failed to load manifest missing.yaml")
}

func TestWait(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, map[string]string{"pod.yaml": podYAML})

	doc, err := f.scope.LoadManifest(kubescope.ManifestOptions{Path: "pod.yaml"})
	req.NoError(err)
	_, err = f.cluster.Reaktor.Create(f.ctx, doc.Unstructured())
	req.NoError(err)

	f.cluster.QueueWatch("pods", reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Running")))
	outcome, err := f.scope.Wait(f.ctx, kubescope.WaitOptions{
		Kind: kubescope.KindPod, Namespace: "default", Name: "sample-pod", For: "Running",
	})
	req.NoError(err)
	req.Equal(reaktor.Ready, outcome)

	// ready means what run waits for: a running pod, even without a Ready
	// condition
	f.cluster.QueueWatch("pods", reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Running")))
	outcome, err = f.scope.Wait(f.ctx, kubescope.WaitOptions{
		Kind: kubescope.KindPod, Namespace: "default", Name: "sample-pod", For: kubescope.ForReady,
	})
	req.NoError(err)
	req.Equal(reaktor.Ready, outcome)

	readyPod := reaktortest.Pod("sample-pod", "Running")
	readyPod.Object["status"] = map[string]any{
		"phase":      "Running",
		"conditions": []any{map[string]any{"type": "Ready", "status": "True"}},
	}
	f.cluster.QueueWatch("pods",
		reaktortest.Event(watch.Modified, reaktortest.Pod("sample-pod", "Running")),
		reaktortest.Event(watch.Modified, readyPod),
	)
	outcome, err = f.scope.Wait(f.ctx, kubescope.WaitOptions{
		Kind: kubescope.KindPod, Namespace: "default", Name: "sample-pod", For: kubescope.ForContainersReady,
	})
	req.NoError(err)
	req.Equal(reaktor.Ready, outcome)

	outcome, err = f.scope.Wait(f.ctx, kubescope.WaitOptions{
		Kind: kubescope.KindPod, Namespace: "default", Name: "gone-pod", For: kubescope.ForDeleted,
	})
	req.NoError(err)
	req.Equal(reaktor.Deleted, outcome)

	_, err = f.scope.Wait(f.ctx, kubescope.WaitOptions{
		Kind: kubescope.KindDeployment, Namespace: "default", Name: "nginx", For: kubescope.ForRunning,
	})
	req.Equal("--for running only applies to pods", errorutil.GetUserErrorMessage(err))

	_, err = f.scope.Wait(f.ctx, kubescope.WaitOptions{
		Kind: kubescope.KindDeployment, Namespace: "default", Name: "nginx", For: kubescope.ForContainersReady,
	})
	req.Equal("--for containers-ready only applies to pods", errorutil.GetUserErrorMessage(err))
}

func TestLogsFollowNeedsContainer(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, map[string]string{
		"pod.yaml": podYAML,
		"two.yaml": `spec:
  containers:
  - name: sleep
    image: busybox
  - name: sidecar
    image: busybox
`,
	})
	doc, err := f.scope.LoadManifest(kubescope.ManifestOptions{Path: "pod.yaml", Overrides: []string{"two.yaml"}})
	req.NoError(err)
	_, err = f.cluster.Reaktor.Create(f.ctx, doc.Unstructured())
	req.NoError(err)

	opts := kubescope.LogsOptions{Kind: kubescope.KindPod, Namespace: "default", Name: "sample-pod", Follow: true}
	err = f.scope.Logs(f.ctx, opts)
	req.Contains(errorutil.GetUserErrorMessage(err), "pick one with -c")

	opts.Follow = false
	req.NoError(f.scope.Logs(f.ctx, opts))
	req.Equal("# sleep\nfake logs# sidecar\nfake logs", f.out.String())
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]string{
		"pod": kubescope.KindPod, "PODS": kubescope.KindPod, "po": kubescope.KindPod,
		"deploy": kubescope.KindDeployment, "Deployment": kubescope.KindDeployment,
	} {
		got, err := kubescope.ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := kubescope.ParseKind("service")
	assert.Contains(t, errorutil.GetUserErrorMessage(err), `unsupported kind "service"`)
}

func TestLoadManifestDefaultNamespace(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pod.yaml": "apiVersion: v1\nkind: Pod\nmetadata:\n  name: sample-pod\n",
	})

	doc, err := f.scope.LoadManifest(kubescope.ManifestOptions{Path: "pod.yaml", DefaultNamespace: "scratch"})
	require.NoError(t, err)
	assert.Equal(t, "scratch", doc.Namespace())

	doc, err = f.scope.LoadManifest(kubescope.ManifestOptions{Path: "pod.yaml"})
	require.NoError(t, err)
	assert.Empty(t, doc.Namespace())
}
