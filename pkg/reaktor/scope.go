package reaktor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Scoped is a resource with a create/delete lifecycle. *Object[T] implements
// it for every T.
type Scoped interface {
	Create(ctx context.Context, opts ...WaitOption) (Outcome, error)
	Await(ctx context.Context, opts ...WaitOption) (Outcome, error)
	Delete(ctx context.Context, opts ...WaitOption) (Outcome, error)
	NamespacedName() string
}

var _ Scoped = (*Object[struct{}])(nil)

// NotReadyError is returned by WithResource when the resource was created but
// did not become ready. The body was not run.
type NotReadyError struct {
	Object  string
	Outcome Outcome
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s did not become ready: %s", e.Object, e.Outcome)
}

func IsNotReady(err error) bool {
	var nr *NotReadyError
	return errors.As(err, &nr)
}

type scopeOptions struct {
	requireReady   bool
	awaitOpts      []WaitOption
	deleteOpts     []WaitOption
	releaseTimeout time.Duration
}

type ScopeOption func(*scopeOptions)

// AllowUnready runs the body even when the resource timed out or was deleted
// before becoming ready.
func AllowUnready() ScopeOption {
	return func(o *scopeOptions) { o.requireReady = false }
}

// WithAwaitOptions configures the readiness wait that follows creation.
func WithAwaitOptions(opts ...WaitOption) ScopeOption {
	return func(o *scopeOptions) { o.awaitOpts = append(o.awaitOpts, opts...) }
}

// WithDeleteOptions configures the deletion made on the way out.
func WithDeleteOptions(opts ...WaitOption) ScopeOption {
	return func(o *scopeOptions) { o.deleteOpts = append(o.deleteOpts, opts...) }
}

// WithReleaseTimeout bounds the whole teardown, API calls included.
func WithReleaseTimeout(d time.Duration) ScopeOption {
	return func(o *scopeOptions) { o.releaseTimeout = d }
}

// WithResource creates r, waits for it to become ready, runs body and then
// deletes r, waiting for the deletion to be confirmed.
//
// If creation fails nothing is deleted and the error is returned. Once the
// resource exists it is deleted however WithResource exits: after the body
// returns, after the body panics, or after ctx is cancelled. Teardown uses its
// own context so a cancelled ctx still cleans up. Teardown failures are logged
// and never replace the body's error.
func WithResource(
	ctx context.Context,
	r Scoped,
	body func(ctx context.Context) error,
	opts ...ScopeOption,
) error {
	o := &scopeOptions{requireReady: true, releaseTimeout: 2 * time.Minute}
	for _, opt := range opts {
		opt(o)
	}

	log := logrus.WithFields(logrus.Fields{
		"scope":  uuid.NewString(),
		"object": r.NamespacedName(),
	})

	if _, err := r.Create(ctx, NoWait()); err != nil {
		return err
	}
	log.Info("acquired")
	defer release(r, log, o)

	outcome, err := r.Await(ctx, o.awaitOpts...)
	if err != nil {
		return err
	}
	if outcome != Ready && o.requireReady {
		return errors.WithStack(&NotReadyError{Object: r.NamespacedName(), Outcome: outcome})
	}

	return body(ctx)
}

func release(r Scoped, log *logrus.Entry, o *scopeOptions) {
	ctx, cancel := context.WithTimeout(context.Background(), o.releaseTimeout)
	defer cancel()

	outcome, err := r.Delete(ctx, o.deleteOpts...)
	switch {
	case err != nil:
		log.WithError(err).Error("failed to release")
	case outcome != Deleted && outcome != NotAwaited:
		log.Warnf("release not confirmed: %s", outcome)
	default:
		log.Info("released")
	}
}
