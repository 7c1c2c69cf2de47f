package reaktor

import (
	"fmt"

	"github.com/pkg/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// ObjectRef names an object in errors and logs as Kind/namespace/name.
type ObjectRef struct {
	Kind      string
	Namespace string
	Name      string
}

func (r ObjectRef) String() string {
	if r.Namespace == "" {
		return fmt.Sprintf("%s/%s", r.Kind, r.Name)
	}
	return fmt.Sprintf("%s/%s/%s", r.Kind, r.Namespace, r.Name)
}

func refOf(u *unstructured.Unstructured) ObjectRef {
	return ObjectRef{Kind: u.GetKind(), Namespace: u.GetNamespace(), Name: u.GetName()}
}

// APIError is returned when the API server rejects a call: conflicts, invalid
// patches, authorization failures and transport errors. Err is the error
// returned by client-go, so apierrors.IsConflict and friends still work on it.
type APIError struct {
	Op     string
	Ref    ObjectRef
	Code   int32
	Reason metav1.StatusReason
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Ref, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// NotFoundError is returned when the target of an operation does not exist.
type NotFoundError struct {
	Op  string
	Ref ObjectRef
	Err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s failed: not found", e.Op, e.Ref)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

func wrapAPIError(op string, ref ObjectRef, err error) error {
	if err == nil {
		return nil
	}
	if apierrors.IsNotFound(err) {
		return errors.WithStack(&NotFoundError{Op: op, Ref: ref, Err: err})
	}

	apiErr := &APIError{Op: op, Ref: ref, Err: err}
	var status apierrors.APIStatus
	if errors.As(err, &status) {
		apiErr.Code = status.Status().Code
		apiErr.Reason = status.Status().Reason
	}
	return errors.WithStack(apiErr)
}
