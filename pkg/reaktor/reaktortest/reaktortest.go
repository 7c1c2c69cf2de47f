// Package reaktortest runs a Reaktor against client-go's in-memory fakes.
//
// Watches opened against the fake cluster are served from queues filled with
// QueueWatch, in the order they were queued. When a resource has no queued
// watch the fake falls back to its object tracker, which only reports changes
// made after the watch was opened.
package reaktortest

import (
	"sync"

	"go.jetpack.io/kubescope/pkg/reaktor"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	kubefake "k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/kubernetes/scheme"
	clienttesting "k8s.io/client-go/testing"
)

const Namespace = "default"

type Cluster struct {
	Reaktor   *reaktor.Reaktor
	Dynamic   *dynamicfake.FakeDynamicClient
	Clientset *kubefake.Clientset

	mu      sync.Mutex
	watches map[string][]watch.Interface
}

// New returns a fake cluster seeded with objects. Typed objects are visible to
// both the dynamic client and the clientset, unstructured ones only to the
// dynamic client. Created objects get the UID returned by UIDFor.
func New(objects ...runtime.Object) *Cluster {
	var typed []runtime.Object
	for _, obj := range objects {
		if _, ok := obj.(*unstructured.Unstructured); !ok {
			typed = append(typed, obj)
		}
	}

	c := &Cluster{
		Dynamic:   dynamicfake.NewSimpleDynamicClient(scheme.Scheme, objects...),
		Clientset: kubefake.NewSimpleClientset(typed...),
		watches:   map[string][]watch.Interface{},
	}
	c.Dynamic.PrependReactor("create", "*", assignUID)
	c.Dynamic.PrependWatchReactor("*", c.nextWatch)

	c.Reaktor = reaktor.NewForClients(reaktor.Clients{
		Dynamic:   c.Dynamic,
		Clientset: c.Clientset,
		Mapper:    RESTMapper(),
		Namespace: Namespace,
	})
	return c
}

// RESTMapper knows the kinds kubescope manages plus a few core ones.
func RESTMapper() meta.RESTMapper {
	mapper := meta.NewDefaultRESTMapper([]schema.GroupVersion{
		{Group: "", Version: "v1"},
		{Group: "apps", Version: "v1"},
	})
	mapper.Add(reaktor.PodGVK(), meta.RESTScopeNamespace)
	mapper.Add(reaktor.DeploymentGVK(), meta.RESTScopeNamespace)
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"}, meta.RESTScopeNamespace)
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}, meta.RESTScopeRoot)
	return mapper
}

// QueueWatch makes the next watch on resource (e.g. "pods") deliver events.
// The stream stays open afterwards, like a server that has nothing more to
// say.
func (c *Cluster) QueueWatch(resource string, events ...watch.Event) *watch.FakeWatcher {
	w := watch.NewFakeWithChanSize(len(events), false)
	for _, e := range events {
		w.Action(e.Type, e.Object)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.watches[resource] = append(c.watches[resource], w)
	return w
}

// QueueClosedWatch is QueueWatch for a stream the server closes after the
// events.
func (c *Cluster) QueueClosedWatch(resource string, events ...watch.Event) {
	c.QueueWatch(resource, events...).Stop()
}

// Actions returns every call recorded by the dynamic client, watches
// included.
func (c *Cluster) Actions() []clienttesting.Action {
	return c.Dynamic.Actions()
}

// ActionsOf returns the recorded dynamic client calls with the given verb.
func (c *Cluster) ActionsOf(verb string) []clienttesting.Action {
	var out []clienttesting.Action
	for _, a := range c.Dynamic.Actions() {
		if a.GetVerb() == verb {
			out = append(out, a)
		}
	}
	return out
}

func (c *Cluster) nextWatch(action clienttesting.Action) (bool, watch.Interface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resource := action.GetResource().Resource
	queue := c.watches[resource]
	if len(queue) == 0 {
		return false, nil, nil
	}
	c.watches[resource] = queue[1:]
	return true, queue[0], nil
}

func assignUID(action clienttesting.Action) (bool, runtime.Object, error) {
	create, ok := action.(clienttesting.CreateAction)
	if !ok {
		return false, nil, nil
	}
	obj, err := meta.Accessor(create.GetObject())
	if err != nil {
		return false, nil, nil
	}
	if obj.GetUID() == "" {
		obj.SetUID(UIDFor(obj.GetName()))
	}
	return false, nil, nil
}

// UIDFor is the UID the fake cluster gives to a created object.
func UIDFor(name string) types.UID {
	return types.UID("uid-" + name)
}

// Pod returns a pod in Namespace with the given phase, as a watch would
// deliver it.
func Pod(name, phase string) *unstructured.Unstructured {
	u := object("v1", "Pod", name)
	if phase != "" {
		u.Object["status"] = map[string]any{"phase": phase}
	}
	return u
}

// Deployment returns a deployment in Namespace asking for replicas with
// available of them ready.
func Deployment(name string, replicas, available int64) *unstructured.Unstructured {
	u := object("apps/v1", "Deployment", name)
	u.Object["spec"] = map[string]any{"replicas": replicas}
	u.Object["status"] = map[string]any{"availableReplicas": available}
	return u
}

func object(apiVersion, kind, name string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": apiVersion,
		"kind":       kind,
		"metadata":   map[string]any{},
	}}
	u.SetName(name)
	u.SetNamespace(Namespace)
	u.SetUID(UIDFor(name))
	return u
}

func Event(t watch.EventType, obj *unstructured.Unstructured) watch.Event {
	return watch.Event{Type: t, Object: obj}
}
