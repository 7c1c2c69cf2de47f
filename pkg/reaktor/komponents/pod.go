package komponents

import (
	"go.jetpack.io/kubescope/pkg/reaktor"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Pod is a single-container pod. It is the default manifest of kubepods.New:
// anything it doesn't cover can be set through the override document.
type Pod struct {
	Name          string
	Namespace     string
	Image         string
	Command       []string
	Args          []string
	Labels        map[string]string
	Env           map[string]string
	Config        EnvConfig
	RestartPolicy corev1.RestartPolicy // defaults to Never
}

// Pod implements interface Resource (compile-time check)
var _ reaktor.Resource = (*Pod)(nil)

func (p *Pod) ToManifest() (any, error) {
	restartPolicy := p.RestartPolicy
	if restartPolicy == "" {
		restartPolicy = corev1.RestartPolicyNever
	}

	c, volumes := container{
		Image:   p.Image,
		Command: p.Command,
		Args:    p.Args,
		Env:     p.Env,
		Config:  p.Config,
	}.manifest()

	spec := map[string]any{
		"containers":    []any{c},
		"restartPolicy": string(restartPolicy),
	}
	if len(volumes) > 0 {
		spec["volumes"] = volumes
	}

	metadata := map[string]any{
		"name":      p.Name,
		"namespace": p.Namespace,
	}
	if len(p.Labels) > 0 {
		metadata["labels"] = stringMap(p.Labels)
	}

	return &unstructured.Unstructured{
		Object: map[string]any{
			"apiVersion": "v1",
			"kind":       "Pod",
			"metadata":   metadata,
			"spec":       spec,
		},
	}, nil
}
