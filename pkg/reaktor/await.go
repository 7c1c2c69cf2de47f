package reaktor

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
)

// Outcome is how a wait on a single object ended.
type Outcome int

const (
	// NotAwaited is returned by Create and Delete when waiting was disabled, and
	// alongside errors. AwaitCondition never resolves to it.
	NotAwaited Outcome = iota
	Ready
	Deleted
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "Ready"
	case Deleted:
		return "Deleted"
	case TimedOut:
		return "TimedOut"
	default:
		return "NotAwaited"
	}
}

// Predicate reports whether an observed object satisfies a condition. A nil
// Predicate never holds.
type Predicate func(obj *unstructured.Unstructured) (bool, error)

// Identity selects the object a wait is about. When UID is set it wins over
// the name, so a deleted and recreated object with the same name is treated
// as a different object.
type Identity struct {
	Namespace string
	Name      string
	UID       types.UID
}

// Matches reports whether obj is the identified object. With a UID only that
// exact instance matches; without one any object with the same namespace and
// name does.
func (id Identity) Matches(obj *unstructured.Unstructured) bool {
	if obj == nil {
		return false
	}
	if id.UID != "" {
		return obj.GetUID() == id.UID
	}
	return obj.GetName() == id.Name && obj.GetNamespace() == id.Namespace
}

// AwaitResult is how an AwaitCondition call ended.
type AwaitResult struct {
	Outcome Outcome
	// Object is the last matching object seen, or nil if none was seen.
	Object *unstructured.Unstructured
}

// AwaitCondition watches the identified object until pred holds (Ready), the
// object is deleted (Deleted) or timeout elapses (TimedOut). The watch is
// opened without a resource version, so the server replays the current state
// as an ADDED event and a condition that already holds resolves at once.
//
// Cancellation of ctx is not a timeout: it returns ctx.Err().
func (k *Reaktor) AwaitCondition(
	ctx context.Context,
	gvr schema.GroupVersionResource,
	id Identity,
	pred Predicate,
	timeout time.Duration,
) (*AwaitResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	w, err := k.Watch(waitCtx, gvr, id, timeout)
	if err != nil {
		if ctx.Err() == nil && waitCtx.Err() != nil {
			return &AwaitResult{Outcome: TimedOut}, nil
		}
		return nil, err
	}

	res, err := Await(waitCtx, w, id, pred)
	if err != nil {
		return nil, err
	}
	if res.Outcome == TimedOut && ctx.Err() != nil {
		return nil, errors.WithStack(ctx.Err())
	}
	return res, nil
}

// Watch opens a watch on the single object named by id. The server closes the
// stream after timeout.
func (k *Reaktor) Watch(
	ctx context.Context,
	gvr schema.GroupVersionResource,
	id Identity,
	timeout time.Duration,
) (watch.Interface, error) {
	timeoutSeconds := int64(math.Ceil(timeout.Seconds()))
	if timeoutSeconds < 1 {
		timeoutSeconds = 1
	}

	w, err := k.dynamicClient.Resource(gvr).Namespace(id.Namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector:  fields.OneTermEqualSelector("metadata.name", id.Name).String(),
		TimeoutSeconds: &timeoutSeconds,
	})
	if err != nil {
		return nil, wrapAPIError("watch", k.ref(gvr, id.Namespace, id.Name), err)
	}
	return w, nil
}

// Await consumes w until an event about id resolves the wait. Events about
// other objects are ignored. A DELETED event for id resolves to Deleted even if
// the deleted object satisfies pred. The watch is stopped before returning.
//
// If ctx ends or the stream closes first the result is TimedOut, so callers
// should bound ctx with the time they are willing to wait.
func Await(ctx context.Context, w watch.Interface, id Identity, pred Predicate) (*AwaitResult, error) {
	defer w.Stop()
	log := logrus.WithField("object", id.Namespace+"/"+id.Name)

	var last *unstructured.Unstructured
	for {
		select {
		case <-ctx.Done():
			return &AwaitResult{Outcome: TimedOut, Object: last}, nil
		case event, ok := <-w.ResultChan():
			if !ok {
				return &AwaitResult{Outcome: TimedOut, Object: last}, nil
			}

			switch event.Type {
			case watch.Bookmark:
				continue
			case watch.Error:
				return nil, watchError(id, event)
			}

			obj, ok := event.Object.(*unstructured.Unstructured)
			if !ok || !id.Matches(obj) {
				continue
			}
			last = obj
			log.Debugf("watch event %s", event.Type)

			if event.Type == watch.Deleted {
				return &AwaitResult{Outcome: Deleted, Object: obj}, nil
			}
			if pred == nil {
				continue
			}
			holds, err := pred(obj)
			if err != nil {
				return nil, errors.Wrapf(err, "evaluating condition on %s/%s", id.Namespace, id.Name)
			}
			if holds {
				return &AwaitResult{Outcome: Ready, Object: obj}, nil
			}
		}
	}
}

func watchError(id Identity, event watch.Event) error {
	ref := ObjectRef{Kind: "watch", Namespace: id.Namespace, Name: id.Name}
	status, ok := event.Object.(*metav1.Status)
	if u, isUnstructured := event.Object.(*unstructured.Unstructured); isUnstructured {
		// the dynamic client decodes error events as unstructured Status objects
		status = &metav1.Status{}
		ok = ManifestToKubeStruct(u, status) == nil
	}
	if !ok {
		return errors.WithStack(&APIError{
			Op:  "watch",
			Ref: ref,
			Err: errors.Errorf("unexpected watch error event: %v", event.Object),
		})
	}
	return errors.WithStack(&APIError{
		Op:     "watch",
		Ref:    ref,
		Code:   status.Code,
		Reason: status.Reason,
		Err:    apierrors.FromObject(status),
	})
}
