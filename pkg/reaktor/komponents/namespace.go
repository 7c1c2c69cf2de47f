package komponents

import (
	"go.jetpack.io/kubescope/pkg/reaktor"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

type Namespace struct {
	Name   string
	Labels map[string]string
}

// Namespace implements interface Resource (compile-time check)
var _ reaktor.Resource = (*Namespace)(nil)

func (ns *Namespace) ToManifest() (any, error) {
	metadata := map[string]any{"name": ns.Name}
	if len(ns.Labels) > 0 {
		metadata["labels"] = stringMap(ns.Labels)
	}
	return &unstructured.Unstructured{
		Object: map[string]any{
			"apiVersion": "v1",
			"kind":       "Namespace",
			"metadata":   metadata,
		},
	}, nil
}
