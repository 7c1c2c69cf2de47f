// Package manifest holds the desired state of a resource as an untyped
// document.
//
// A Document is what callers write by hand or load from a YAML/JSON file:
//
//	doc, err := manifest.Build(defaults, manifest.Document{
//	  "metadata": map[string]any{"name": "sample-pod"},
//	})
//
// Build merges a partial override onto a default document and refuses to
// return a document that lacks the identity (metadata.name and
// metadata.namespace) needed to address it on the cluster. Decode projects a
// document onto a typed kubernetes struct, rejecting fields the struct does
// not declare.
package manifest

import (
	"encoding/json"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	utiljson "k8s.io/apimachinery/pkg/util/json"
)

// Document is an untyped resource manifest:
// {apiVersion, kind, metadata: {name, namespace, labels?}, spec: {...}}
type Document map[string]any

func (d Document) APIVersion() string { return d.nestedString("apiVersion") }
func (d Document) Kind() string       { return d.nestedString("kind") }
func (d Document) Name() string       { return d.nestedString("metadata", "name") }
func (d Document) Namespace() string  { return d.nestedString("metadata", "namespace") }

func (d Document) GroupVersionKind() schema.GroupVersionKind {
	return schema.FromAPIVersionAndKind(d.APIVersion(), d.Kind())
}

func (d Document) nestedString(fields ...string) string {
	s, _, _ := unstructured.NestedString(d, fields...)
	return s
}

// DeepCopy copies every nested map and slice. Leaf values are shared, which is
// fine since leaves are immutable scalars.
func (d Document) DeepCopy() Document {
	if d == nil {
		return nil
	}
	return Document(deepCopyMap(d))
}

// Unstructured returns a copy of the document wrapped for the dynamic client.
// The document should come from Build or Normalize so that every number is an
// int64 or float64.
func (d Document) Unstructured() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: deepCopyMap(d)}
}

// FromUnstructured copies u into a Document.
func FromUnstructured(u *unstructured.Unstructured) Document {
	if u == nil {
		return nil
	}
	return Document(deepCopyMap(u.Object))
}

// JSON returns the compact JSON form of the document.
func (d Document) JSON() ([]byte, error) {
	data, err := json.Marshal(map[string]any(d))
	return data, errors.WithStack(err)
}

// Normalize round-trips the document through JSON. Go ints, structs and typed
// maps come back as the int64/float64/map[string]any values the kubernetes
// unstructured helpers expect.
func Normalize(d Document) (Document, error) {
	data, err := d.JSON()
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	// utiljson only converts numbers when decoding into this exact type.
	var m map[string]any
	if err := utiljson.Unmarshal(data, &m); err != nil {
		return nil, errors.WithStack(err)
	}
	return Document(m), nil
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return deepCopyMap(value)
	case Document:
		return deepCopyMap(value)
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = deepCopyValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = deepCopyMap(item)
		}
		return out
	default:
		return value
	}
}
