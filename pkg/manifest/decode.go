package manifest

import (
	"fmt"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// Decode projects d onto into, usually a pointer to a typed kubernetes object
// such as *corev1.Pod. Unknown fields and type mismatches are reported as a
// *ValidationError.
func Decode(d Document, into any) error {
	data, err := d.JSON()
	if err != nil {
		return errors.WithStack(err)
	}
	if err := yaml.UnmarshalStrict(data, into); err != nil {
		return &ValidationError{
			Reason: fmt.Sprintf("does not match the %s schema: %v", kindOrUnknown(d), err),
		}
	}
	return nil
}

func kindOrUnknown(d Document) string {
	if k := d.Kind(); k != "" {
		return k
	}
	return "expected"
}
