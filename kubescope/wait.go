package kubescope

import (
	"context"
	"strings"
	"time"

	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/readiness"
)

// Conditions accepted by Wait.
const (
	ForReady   = "ready"
	ForRunning = "running"
	// ForContainersReady waits for the pod's Ready condition, which needs
	// every container to report ready.
	ForContainersReady = "containers-ready"
	ForCurrent         = "current"
	ForDeleted         = "deleted"
)

type WaitOptions struct {
	Kind      string
	Namespace string
	Name      string
	For       string
	Timeout   time.Duration // zero means the kind's create (or delete) timeout
}

// Wait blocks until an existing object meets the condition, is deleted or the
// timeout elapses. Waiting for deletion of an object that doesn't exist
// resolves Deleted at once. ForReady uses the same check as run and create:
// a running pod or a fully available deployment.
func (s *Scope) Wait(ctx context.Context, opts WaitOptions) (reaktor.Outcome, error) {
	condition := strings.ToLower(opts.For)
	if err := checkCondition(opts.Kind, condition); err != nil {
		return reaktor.NotAwaited, err
	}

	obj, err := Get(ctx, s.klient, opts.Kind, opts.Namespace, opts.Name)
	if err != nil {
		if condition == ForDeleted && reaktor.IsNotFound(err) {
			return reaktor.Deleted, nil
		}
		return reaktor.NotAwaited, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = obj.Kind().CreateTimeout
		if condition == ForDeleted {
			timeout = obj.Kind().DeleteTimeout
		}
	}
	pred := predicateFor(obj.Kind(), condition)
	return obj.Await(ctx, reaktor.WithPredicate(pred), reaktor.WithTimeout(timeout))
}

func checkCondition(kind, condition string) error {
	switch condition {
	case ForReady, ForCurrent, ForDeleted:
		return nil
	case ForRunning, ForContainersReady:
		if kind != KindPod {
			return errorutil.NewUserErrorf("--for %s only applies to pods", condition)
		}
		return nil
	}
	return errorutil.NewUserErrorf(
		"unknown condition %q: must be one of ready, running, containers-ready, current, deleted", condition)
}

// predicateFor maps a checked condition to its predicate. Deletion is waited
// for with a nil predicate, which never holds.
func predicateFor(kind reaktor.Kind, condition string) reaktor.Predicate {
	switch condition {
	case ForReady:
		return kind.Ready
	case ForRunning:
		return readiness.PodRunning
	case ForContainersReady:
		return readiness.PodReady
	case ForCurrent:
		return readiness.Current
	}
	return nil
}
