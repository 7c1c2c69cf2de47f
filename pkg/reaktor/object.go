package reaktor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.jetpack.io/kubescope/pkg/manifest"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
)

// Kind describes a resource kind that can be managed as an Object: where it
// lives on the API server, when it counts as ready, and how long to wait by
// default.
type Kind struct {
	GroupVersionKind schema.GroupVersionKind
	Resource         schema.GroupVersionResource
	Ready            Predicate
	CreateTimeout    time.Duration
	DeleteTimeout    time.Duration
}

type waitOptions struct {
	wait      bool
	timeout   time.Duration
	predicate Predicate
}

type WaitOption func(*waitOptions)

// NoWait returns as soon as the API server accepts the request.
func NoWait() WaitOption {
	return func(o *waitOptions) { o.wait = false }
}

func WithTimeout(d time.Duration) WaitOption {
	return func(o *waitOptions) { o.timeout = d }
}

// WithPredicate replaces the kind's readiness predicate. Ignored by Delete.
func WithPredicate(p Predicate) WaitOption {
	return func(o *waitOptions) { o.predicate = p }
}

// Object is a single kubernetes resource managed through its whole lifecycle.
// It pairs the desired manifest with a typed model of the last state observed
// on the server. T is the typed kubernetes struct, e.g. corev1.Pod.
//
// An Object is not safe for concurrent use.
type Object[T any] struct {
	klient *Reaktor
	kind   Kind
	doc    manifest.Document

	model    *T
	observed *unstructured.Unstructured
	uid      types.UID

	log *logrus.Entry
}

// NewObject validates doc and decodes it strictly into T. Nothing is sent to
// the server.
func NewObject[T any](klient *Reaktor, kind Kind, doc manifest.Document) (*Object[T], error) {
	doc, err := manifest.Normalize(doc)
	if err != nil {
		return nil, err
	}
	if err := manifest.Validate(doc); err != nil {
		return nil, err
	}
	if gvk := doc.GroupVersionKind(); gvk != kind.GroupVersionKind {
		return nil, &manifest.ValidationError{
			Field:  "kind",
			Reason: fmt.Sprintf("must be %s, got %s", kind.GroupVersionKind, gvk),
		}
	}

	model := new(T)
	if err := manifest.Decode(doc, model); err != nil {
		return nil, err
	}

	o := newObject[T](klient, kind, doc)
	o.model = model
	return o, nil
}

// WrapObject builds an Object from a server response, as returned by Get or
// List. Unknown fields are tolerated.
func WrapObject[T any](klient *Reaktor, kind Kind, u *unstructured.Unstructured) (*Object[T], error) {
	o := newObject[T](klient, kind, manifest.FromUnstructured(u))
	if err := o.observe(u); err != nil {
		return nil, err
	}
	return o, nil
}

func newObject[T any](klient *Reaktor, kind Kind, doc manifest.Document) *Object[T] {
	return &Object[T]{
		klient: klient,
		kind:   kind,
		doc:    doc,
		model:  new(T),
		log: logrus.WithFields(logrus.Fields{
			"kind":   kind.GroupVersionKind.Kind,
			"object": doc.Namespace() + "/" + doc.Name(),
		}),
	}
}

// Name is the object's name from its manifest.
func (o *Object[T]) Name() string { return o.doc.Name() }

// Namespace is the object's namespace from its manifest.
func (o *Object[T]) Namespace() string { return o.doc.Namespace() }

// UID is the server-assigned UID. It is empty until the object is created or
// read, and again once it is deleted.
func (o *Object[T]) UID() types.UID { return o.uid }

// Kind describes the object's resource, readiness check and timeouts.
func (o *Object[T]) Kind() Kind { return o.kind }

func (o *Object[T]) NamespacedName() string {
	return o.Namespace() + "/" + o.Name()
}

// Model is the typed view of the last observed state. After a confirmed
// deletion it is an empty T.
func (o *Object[T]) Model() *T { return o.model }

// Manifest returns a copy of the desired manifest.
func (o *Object[T]) Manifest() manifest.Document { return o.doc.DeepCopy() }

// Observed returns a copy of the last server response, or nil.
func (o *Object[T]) Observed() *unstructured.Unstructured {
	if o.observed == nil {
		return nil
	}
	return o.observed.DeepCopy()
}

func (o *Object[T]) Identity() Identity {
	return Identity{Namespace: o.Namespace(), Name: o.Name(), UID: o.uid}
}

// Create submits the manifest and, unless NoWait is given, waits for the
// kind's readiness predicate. The returned outcome is Ready, Deleted or
// TimedOut; only errors from the server are returned as errors.
func (o *Object[T]) Create(ctx context.Context, opts ...WaitOption) (Outcome, error) {
	wo := o.waitOptions(o.kind.CreateTimeout, opts)

	o.log.Info("creating")
	if pretty, err := json.MarshalIndent(o.doc, "", "  "); err == nil {
		o.log.Debugf("manifest:\n%s", pretty)
	}

	created, err := o.klient.Create(ctx, o.doc.Unstructured())
	if err != nil {
		return NotAwaited, err
	}
	if err := o.observe(created); err != nil {
		return NotAwaited, err
	}
	if !wo.wait {
		return NotAwaited, nil
	}
	return o.await(ctx, wo)
}

// Await waits for the object to become ready without changing it. It is the
// waiting half of Create.
func (o *Object[T]) Await(ctx context.Context, opts ...WaitOption) (Outcome, error) {
	wo := o.waitOptions(o.kind.CreateTimeout, opts)
	if !wo.wait {
		return NotAwaited, nil
	}
	return o.await(ctx, wo)
}

func (o *Object[T]) await(ctx context.Context, wo waitOptions) (Outcome, error) {
	start := time.Now()
	res, err := o.klient.AwaitCondition(ctx, o.kind.Resource, o.Identity(), wo.predicate, wo.timeout)
	if err != nil {
		return NotAwaited, err
	}
	if res.Outcome == Ready {
		if err := o.observe(res.Object); err != nil {
			return NotAwaited, err
		}
	}

	entry := o.log.WithField("elapsed", time.Since(start).Round(time.Millisecond))
	if res.Outcome == Ready {
		entry.Info("ready")
	} else {
		entry.Warnf("not ready: %s", res.Outcome)
	}
	return res.Outcome, nil
}

// Read refreshes the model from the server.
func (o *Object[T]) Read(ctx context.Context) error {
	u, err := o.klient.Get(ctx, o.kind.Resource, o.Name(), o.Namespace())
	if err != nil {
		return err
	}
	return o.observe(u)
}

// Update sends patch as a JSON merge patch and refreshes the model from the
// response. Update does not wait.
func (o *Object[T]) Update(ctx context.Context, patch any) error {
	o.log.Info("updating")
	u, err := o.klient.Update(ctx, o.kind.Resource, o.Name(), o.Namespace(), patch)
	if err != nil {
		return err
	}
	return o.observe(u)
}

// Delete requests deletion and, unless NoWait is given, waits until the API
// server reports the object gone. The watch is opened before the delete is
// sent so a fast deletion cannot be missed. On a confirmed deletion (or with
// NoWait) the model is reset.
func (o *Object[T]) Delete(ctx context.Context, opts ...WaitOption) (Outcome, error) {
	wo := o.waitOptions(o.kind.DeleteTimeout, opts)
	o.log.Info("deleting")

	if !wo.wait {
		if err := o.klient.Delete(ctx, o.kind.Resource, o.Name(), o.Namespace()); err != nil {
			return NotAwaited, err
		}
		o.reset()
		return NotAwaited, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, wo.timeout)
	defer cancel()

	id := o.Identity()
	w, err := o.klient.Watch(waitCtx, o.kind.Resource, id, wo.timeout)
	if err != nil {
		return NotAwaited, err
	}
	if err := o.klient.Delete(waitCtx, o.kind.Resource, o.Name(), o.Namespace()); err != nil {
		w.Stop()
		return NotAwaited, err
	}

	res, err := Await(waitCtx, w, id, nil)
	if err != nil {
		return NotAwaited, err
	}
	if res.Outcome == TimedOut && ctx.Err() != nil {
		return NotAwaited, errors.WithStack(ctx.Err())
	}
	if res.Outcome == Deleted {
		o.log.Info("deleted")
		o.reset()
	} else {
		o.log.Warnf("deletion not confirmed: %s", res.Outcome)
	}
	return res.Outcome, nil
}

// ToPretty renders the model as indented JSON.
func (o *Object[T]) ToPretty() string {
	b, err := json.MarshalIndent(o.model, "", "    ")
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(b)
}

func (o *Object[T]) String() string {
	b, err := json.Marshal(o.model)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(b)
}

func (o *Object[T]) waitOptions(timeout time.Duration, opts []WaitOption) waitOptions {
	wo := waitOptions{wait: true, timeout: timeout, predicate: o.kind.Ready}
	for _, opt := range opts {
		opt(&wo)
	}
	return wo
}

func (o *Object[T]) observe(u *unstructured.Unstructured) error {
	model := new(T)
	if err := ManifestToKubeStruct(u, model); err != nil {
		return err
	}
	o.model = model
	o.observed = u.DeepCopy()
	o.uid = u.GetUID()
	return nil
}

func (o *Object[T]) reset() {
	o.model = new(T)
	o.observed = nil
	o.uid = ""
}
