package komponents

import (
	"go.jetpack.io/kubescope/pkg/reaktor"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const appLabel = "app"

var _ reaktor.Resource = (*Deployment)(nil)

// Deployment runs Replicas copies of a single-container pod. Its pods are
// selected by app=<Name> plus any extra Labels.
type Deployment struct {
	Name      string
	Namespace string
	Image     string
	Command   []string
	Args      []string
	Replicas  int // 0 means 1
	Labels    map[string]string
	Env       map[string]string
	Config    EnvConfig
}

func (d *Deployment) ToManifest() (any, error) {
	replicas := int64(d.Replicas)
	if replicas == 0 {
		replicas = 1
	}

	labels := map[string]string{appLabel: d.Name}
	for k, v := range d.Labels {
		labels[k] = v
	}

	c, volumes := container{
		Image:   d.Image,
		Command: d.Command,
		Args:    d.Args,
		Env:     d.Env,
		Config:  d.Config,
	}.manifest()

	podSpec := map[string]any{"containers": []any{c}}
	if len(volumes) > 0 {
		podSpec["volumes"] = volumes
	}

	return &unstructured.Unstructured{
		Object: map[string]any{
			"apiVersion": "apps/v1",
			"kind":       "Deployment",
			"metadata": map[string]any{
				"name":      d.Name,
				"namespace": d.Namespace,
				"labels":    stringMap(labels),
			},
			"spec": map[string]any{
				"replicas": replicas,
				"selector": map[string]any{
					"matchLabels": stringMap(labels),
				},
				"template": map[string]any{
					"metadata": map[string]any{"labels": stringMap(labels)},
					"spec":     podSpec,
				},
			},
		},
	}, nil
}
