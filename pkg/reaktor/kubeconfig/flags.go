package kubeconfig

import (
	"time"

	"k8s.io/client-go/tools/clientcmd"
)

// Flags override what the kubeconfig's current context says. Zero values
// leave the kubeconfig alone.
type Flags struct {
	Context   string
	Namespace string

	APIServer   string // address of the API server
	BearerToken string
	// Insecure skips verifying the API server's certificate.
	Insecure bool
	// Timeout bounds each request; zero means no limit.
	Timeout time.Duration

	// Client side rate limiting. Zero keeps the client-go defaults.
	QPS   float32
	Burst int

	// CacheDir holds the discovery cache. Defaults to ~/.kube/cache.
	CacheDir string
}

func (f Flags) overrides() *clientcmd.ConfigOverrides {
	overrides := &clientcmd.ConfigOverrides{ClusterDefaults: clientcmd.ClusterDefaults}

	overrides.CurrentContext = f.Context
	overrides.Context.Namespace = f.Namespace
	overrides.ClusterInfo.Server = f.APIServer
	overrides.AuthInfo.Token = f.BearerToken
	// client-go drops the kubeconfig's CA when this is set
	overrides.ClusterInfo.InsecureSkipTLSVerify = f.Insecure
	if f.Timeout > 0 {
		overrides.Timeout = f.Timeout.String()
	}
	return overrides
}
