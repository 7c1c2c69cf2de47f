// Package readiness has the conditions kubescope waits for. Every predicate
// takes the unstructured object delivered by a watch and converts it to the
// typed struct it inspects.
package readiness

import (
	"github.com/pkg/errors"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/kubectl/pkg/util/podutils"
	"sigs.k8s.io/cli-utils/pkg/kstatus/status"
)

// PodRunning holds once the pod's phase is Running. Containers may still be
// failing their readiness checks; see PodReady for that.
func PodRunning(u *unstructured.Unstructured) (bool, error) {
	pod, err := convert[corev1.Pod](u)
	if err != nil {
		return false, err
	}
	return pod.Status.Phase == corev1.PodRunning, nil
}

// PodReady holds once the pod's Ready condition is true.
func PodReady(u *unstructured.Unstructured) (bool, error) {
	pod, err := convert[corev1.Pod](u)
	if err != nil {
		return false, err
	}
	return podutils.IsPodReady(pod), nil
}

// DeploymentAvailable holds once the number of available replicas equals the
// requested replicas. An unset spec.replicas means 1, as on the API server.
func DeploymentAvailable(u *unstructured.Unstructured) (bool, error) {
	deployment, err := convert[appsv1.Deployment](u)
	if err != nil {
		return false, err
	}
	want := int32(1)
	if deployment.Spec.Replicas != nil {
		want = *deployment.Spec.Replicas
	}
	return deployment.Status.AvailableReplicas == want, nil
}

// Current holds once kstatus considers the object fully reconciled. It works
// for any kind, including custom resources that follow the standard
// conditions.
func Current(u *unstructured.Unstructured) (bool, error) {
	res, err := status.Compute(u)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return res.Status == status.CurrentStatus, nil
}

func convert[T any](u *unstructured.Unstructured) (*T, error) {
	if u == nil {
		return nil, errors.New("readiness: nil object")
	}
	out := new(T)
	err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, out)
	if err != nil {
		return nil, errors.Wrapf(err, "readiness: cannot read %s %s", u.GetKind(), u.GetName())
	}
	return out, nil
}
