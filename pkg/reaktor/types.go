package reaktor

// Resource is anything that can render itself as a kubernetes manifest. The
// komponents package has builders for the default manifests kubescope uses.
type Resource interface {
	// ToManifest returns an *unstructured.Unstructured, a manifest.Document,
	// another Resource or a typed kubernetes object such as *corev1.Pod.
	ToManifest() (any, error)
}
