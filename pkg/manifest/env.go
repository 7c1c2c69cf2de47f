package manifest

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

var containerPaths = [][]string{
	{"spec", "template", "spec", "containers"}, // deployments and other pod templates
	{"spec", "containers"},                     // pods
}

// InjectEnv adds env to every container of the pod spec in d. Variables the
// manifest already declares on a container keep their value.
func InjectEnv(d Document, env map[string]string) (Document, error) {
	out, err := Normalize(d)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(env) == 0 {
		return out, nil
	}

	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, path := range containerPaths {
		containers, found, err := unstructured.NestedSlice(out, path...)
		if err != nil {
			return nil, &ValidationError{Field: joinPath(path), Reason: "must be a list"}
		}
		if !found {
			continue
		}
		for i, c := range containers {
			container, ok := c.(map[string]any)
			if !ok {
				return nil, &ValidationError{Field: joinPath(path), Reason: "must contain objects"}
			}
			containers[i] = withEnv(container, names, env)
		}
		if err := unstructured.SetNestedSlice(out, containers, path...); err != nil {
			return nil, &ValidationError{Field: joinPath(path), Reason: err.Error()}
		}
		return out, nil
	}
	return nil, &ValidationError{Reason: "no containers to inject environment into"}
}

func withEnv(container map[string]any, names []string, env map[string]string) map[string]any {
	existing, _, _ := unstructured.NestedSlice(container, "env")
	declared := map[string]bool{}
	for _, e := range existing {
		if m, ok := e.(map[string]any); ok {
			if name, ok := m["name"].(string); ok {
				declared[name] = true
			}
		}
	}
	for _, name := range names {
		if declared[name] {
			continue
		}
		existing = append(existing, map[string]any{"name": name, "value": env[name]})
	}
	container["env"] = existing
	return container
}

func joinPath(path []string) string {
	return strings.Join(path, ".")
}
