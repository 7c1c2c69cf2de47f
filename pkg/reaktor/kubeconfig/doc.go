// Package kubeconfig builds kubernetes clients from a kubeconfig.
//
// A Source picks the kubeconfig and Flags override its current context:
//
//	builder := kubeconfig.NewClientBuilder(
//	  kubeconfig.Source{Path: "path/to/kubeconfig"},
//	  kubeconfig.Flags{Context: "kind-kubescope", Namespace: "sandbox"},
//	)
//	clientset, err := builder.ToClientset()
//
// The zero Source follows kubectl: $KUBECONFIG, then ~/.kube/config, then
// the service account of the pod the binary runs in.
package kubeconfig
