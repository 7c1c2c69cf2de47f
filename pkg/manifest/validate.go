package manifest

import (
	"strings"

	"go.jetpack.io/kubescope/pkg/kubevalidate"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Validate checks the fields needed to address the document on the cluster:
// metadata.name, metadata.namespace, kind and apiVersion.
func Validate(d Document) error {
	name, err := requiredString(d, "metadata", "name")
	if err != nil {
		return err
	}
	if errs := kubevalidate.ObjectNameErrors(name); len(errs) > 0 {
		return &ValidationError{Field: "metadata.name", Reason: strings.Join(errs, "; ")}
	}

	ns, err := requiredString(d, "metadata", "namespace")
	if err != nil {
		return err
	}
	if errs := kubevalidate.NamespaceErrors(ns); len(errs) > 0 {
		return &ValidationError{Field: "metadata.namespace", Reason: strings.Join(errs, "; ")}
	}

	if _, err := requiredString(d, "kind"); err != nil {
		return err
	}
	_, err = requiredString(d, "apiVersion")
	return err
}

func requiredString(d Document, fields ...string) (string, error) {
	path := strings.Join(fields, ".")
	s, found, err := unstructured.NestedString(d, fields...)
	if err != nil {
		return "", &ValidationError{Field: path, Reason: "must be a string"}
	}
	if !found || s == "" {
		return "", &ValidationError{Field: path, Reason: "is required"}
	}
	return s, nil
}
