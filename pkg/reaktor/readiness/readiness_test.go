package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func object(kind, apiVersion string, spec, status map[string]any) *unstructured.Unstructured {
	u := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": apiVersion,
		"kind":       kind,
		"metadata":   map[string]any{"name": "sample", "namespace": "default"},
	}}
	if spec != nil {
		u.Object["spec"] = spec
	}
	if status != nil {
		u.Object["status"] = status
	}
	return u
}

func pod(status map[string]any) *unstructured.Unstructured {
	return object("Pod", "v1", nil, status)
}

func TestPodRunning(t *testing.T) {
	for phase, want := range map[string]bool{
		"Pending":   false,
		"Running":   true,
		"Succeeded": false,
		"":          false,
	} {
		got, err := PodRunning(pod(map[string]any{"phase": phase}))
		require.NoError(t, err)
		assert.Equal(t, want, got, "phase %q", phase)
	}
}

func TestPodReady(t *testing.T) {
	req := require.New(t)

	ready, err := PodReady(pod(map[string]any{
		"phase":      "Running",
		"conditions": []any{map[string]any{"type": "Ready", "status": "True"}},
	}))
	req.NoError(err)
	req.True(ready)

	ready, err = PodReady(pod(map[string]any{
		"phase":      "Running",
		"conditions": []any{map[string]any{"type": "Ready", "status": "False"}},
	}))
	req.NoError(err)
	req.False(ready)
}

func TestDeploymentAvailable(t *testing.T) {
	deployment := func(replicas any, available int64) *unstructured.Unstructured {
		spec := map[string]any{}
		if replicas != nil {
			spec["replicas"] = replicas
		}
		return object("Deployment", "apps/v1", spec, map[string]any{"availableReplicas": available})
	}

	cases := []struct {
		name      string
		replicas  any
		available int64
		want      bool
	}{
		{"partial", int64(3), 2, false},
		{"all", int64(3), 3, true},
		{"defaults to one", nil, 1, true},
		{"none of default", nil, 0, false},
		{"scaled to zero", int64(0), 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeploymentAvailable(deployment(tc.replicas, tc.available))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCurrent(t *testing.T) {
	req := require.New(t)

	current, err := Current(object("ConfigMap", "v1", nil, nil))
	req.NoError(err)
	req.True(current)

	current, err = Current(object("Deployment", "apps/v1", map[string]any{"replicas": int64(2)}, nil))
	req.NoError(err)
	req.False(current)
}
