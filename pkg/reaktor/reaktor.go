package reaktor

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.jetpack.io/kubescope/pkg/manifest"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

const DefaultFieldManager = "kubescope"

// Reaktor is the single gateway kubescope uses to talk to the API server.
// Every call goes through the dynamic client except logs and exec, which need
// the typed clientset. See constructors.go for how to create one.
type Reaktor struct {
	dynamicClient dynamic.Interface
	clientset     kubernetes.Interface
	mapper        meta.RESTMapper
	restConfig    *rest.Config // nil for fake clients; exec needs it

	fieldManager string
	namespace    string
}

// Namespace is the namespace selected by the kubeconfig context (or the
// --namespace override). Manifests always name their own namespace, this is
// only used to fill defaults.
func (k *Reaktor) Namespace() string {
	if k.namespace == "" {
		return metav1.NamespaceDefault
	}
	return k.namespace
}

func (k *Reaktor) Clientset() kubernetes.Interface {
	return k.clientset
}

func (k *Reaktor) RESTConfig() *rest.Config {
	return k.restConfig
}

// Create submits obj as a new object. The manifest is validated before any
// remote call is made.
func (k *Reaktor) Create(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	if err := manifest.Validate(manifest.FromUnstructured(obj)); err != nil {
		return nil, err
	}

	resource, err := k.ToKubeResource(obj)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	created, err := resource.Create(ctx, obj, metav1.CreateOptions{FieldManager: k.fieldManager})
	if err != nil {
		return nil, wrapAPIError("create", refOf(obj), err)
	}
	return created, nil
}

func (k *Reaktor) Get(
	ctx context.Context,
	gvr schema.GroupVersionResource,
	name string,
	ns string,
) (*unstructured.Unstructured, error) {
	u, err := k.dynamicClient.Resource(gvr).Namespace(ns).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, wrapAPIError("get", k.ref(gvr, ns, name), err)
	}
	return u, nil
}

func (k *Reaktor) List(
	ctx context.Context,
	gvr schema.GroupVersionResource,
	ns string,
	listOptions metav1.ListOptions,
) (*unstructured.UnstructuredList, error) {
	u, err := k.dynamicClient.Resource(gvr).Namespace(ns).List(ctx, listOptions)
	if err != nil {
		return nil, wrapAPIError("list", k.ref(gvr, ns, ""), err)
	}
	return u, nil
}

// Update applies patch to the named object as a JSON merge patch. The patch
// can be raw JSON bytes, a string, or anything that marshals to a JSON object.
func (k *Reaktor) Update(
	ctx context.Context,
	gvr schema.GroupVersionResource,
	name string,
	ns string,
	patch any,
) (*unstructured.Unstructured, error) {
	data, err := patchBytes(patch)
	if err != nil {
		return nil, err
	}

	u, err := k.dynamicClient.Resource(gvr).Namespace(ns).Patch(
		ctx,
		name,
		types.MergePatchType,
		data,
		metav1.PatchOptions{FieldManager: k.fieldManager},
	)
	if err != nil {
		return nil, wrapAPIError("update", k.ref(gvr, ns, name), err)
	}
	return u, nil
}

// Delete requests deletion of the named object with background propagation. It
// does not wait for the object to disappear; see Watch and Await for that.
func (k *Reaktor) Delete(
	ctx context.Context,
	gvr schema.GroupVersionResource,
	name string,
	ns string,
) error {
	propagation := metav1.DeletePropagationBackground
	err := k.dynamicClient.Resource(gvr).Namespace(ns).Delete(
		ctx, name, metav1.DeleteOptions{PropagationPolicy: &propagation})
	return wrapAPIError("delete", k.ref(gvr, ns, name), err)
}

// Apply creates or updates the resource using server side apply.
func (k *Reaktor) Apply(ctx context.Context, r Resource) (*unstructured.Unstructured, error) {
	obj, err := ToManifest(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get manifest")
	}

	resource, err := k.ToKubeResource(obj)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get kube resource")
	}

	data, err := obj.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal JSON")
	}

	response, err := resource.Patch(
		ctx,
		obj.GetName(),
		types.ApplyPatchType,
		data,
		metav1.PatchOptions{FieldManager: k.fieldManager},
	)
	if err != nil {
		return nil, wrapAPIError("apply", refOf(obj), err)
	}
	return response, nil
}

func (k *Reaktor) GetByResource(ctx context.Context, r Resource) (*unstructured.Unstructured, error) {
	obj, err := ToManifest(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	resource, err := k.ToKubeResource(obj)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	u, err := resource.Get(ctx, obj.GetName(), metav1.GetOptions{})
	if err != nil {
		return nil, wrapAPIError("get", refOf(obj), err)
	}
	return u, nil
}

func (k *Reaktor) DeleteByResource(ctx context.Context, r Resource) error {
	obj, err := ToManifest(r)
	if err != nil {
		return errors.WithStack(err)
	}

	resource, err := k.ToKubeResource(obj)
	if err != nil {
		return errors.WithStack(err)
	}

	propagation := metav1.DeletePropagationBackground
	err = resource.Delete(ctx, obj.GetName(), metav1.DeleteOptions{PropagationPolicy: &propagation})
	return wrapAPIError("delete", refOf(obj), err)
}

func (k *Reaktor) ToKubeResource(obj *unstructured.Unstructured) (dynamic.ResourceInterface, error) {
	gvr, err := GroupVersionResource(k.mapper, obj)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get GVR")
	}

	ns := obj.GetNamespace()
	if ns == "" {
		return k.dynamicClient.Resource(gvr), nil
	}
	return k.dynamicClient.Resource(gvr).Namespace(ns), nil
}

func (k *Reaktor) ref(gvr schema.GroupVersionResource, ns, name string) ObjectRef {
	kind := gvr.Resource
	if gvk, err := k.mapper.KindFor(gvr); err == nil {
		kind = gvk.Kind
	}
	return ObjectRef{Kind: kind, Namespace: ns, Name: name}
}

func patchBytes(patch any) ([]byte, error) {
	var data []byte
	switch p := patch.(type) {
	case nil:
		return nil, &manifest.ValidationError{Field: "patch", Reason: "is required"}
	case []byte:
		data = p
	case string:
		data = []byte(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, &manifest.ValidationError{Field: "patch", Reason: err.Error()}
		}
		data = b
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return nil, &manifest.ValidationError{Field: "patch", Reason: "must be a JSON object"}
	}
	return data, nil
}
