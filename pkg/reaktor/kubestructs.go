package reaktor

import (
	"github.com/pkg/errors"
	"go.jetpack.io/kubescope/pkg/manifest"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// KubeStructToManifest takes a typed structure from the kubernetes api (i.e.
// corev1.Pod) and returns its unstructured form.
func KubeStructToManifest(kubeStruct any) (*unstructured.Unstructured, error) {
	untyped, err := runtime.DefaultUnstructuredConverter.ToUnstructured(kubeStruct)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &unstructured.Unstructured{Object: untyped}, nil
}

// ManifestToKubeStruct fills into from u. Unlike manifest.Decode it tolerates
// fields into does not know about, since objects returned by a newer API
// server may carry them.
func ManifestToKubeStruct(u *unstructured.Unstructured, into any) error {
	err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, into)
	return errors.WithStack(err)
}

func GroupVersionResource(
	mapper meta.RESTMapper,
	manifest *unstructured.Unstructured,
) (schema.GroupVersionResource, error) {
	gvk := manifest.GroupVersionKind()
	mapping, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return schema.GroupVersionResource{}, errors.Wrap(err, "failed to get RESTMapping")
	}

	return mapping.Resource, nil
}

// ToManifest renders r as an unstructured object.
func ToManifest(r Resource) (*unstructured.Unstructured, error) {
	i, err := r.ToManifest()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	switch value := i.(type) {
	case Resource:
		return ToManifest(value)
	case *unstructured.Unstructured:
		return value, nil
	case unstructured.Unstructured:
		return &value, nil
	case manifest.Document:
		doc, err := manifest.Normalize(value)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return doc.Unstructured(), nil
	default:
		return KubeStructToManifest(value)
	}
}

// ToDocument renders r as a normalized manifest.Document, ready to be used as
// the defaults of manifest.Build.
func ToDocument(r Resource) (manifest.Document, error) {
	u, err := ToManifest(r)
	if err != nil {
		return nil, err
	}
	return manifest.Normalize(manifest.FromUnstructured(u))
}
