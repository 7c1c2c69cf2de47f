package kubeconfig

import (
	"github.com/pkg/errors"
	"k8s.io/client-go/tools/clientcmd"
)

// Source says where the kubeconfig comes from. Set at most one field. With
// neither set the kubeconfig is found the way kubectl finds it: the files
// listed in $KUBECONFIG, else ~/.kube/config. A binary running in a pod
// without a kubeconfig falls back to the pod's service account.
type Source struct {
	Path string // kubeconfig file
	YAML string // kubeconfig contents
}

func (s Source) Validate() error {
	if s.Path != "" && s.YAML != "" {
		return errors.New("kubeconfig: provide either a path or the yaml contents, but not both")
	}
	return nil
}

func (s Source) String() string {
	switch {
	case s.YAML != "":
		return "inline kubeconfig"
	case s.Path != "":
		return s.Path
	default:
		return "default kubeconfig"
	}
}

func (s Source) clientConfig(overrides *clientcmd.ConfigOverrides) (clientcmd.ClientConfig, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.YAML != "" {
		config, err := clientcmd.Load([]byte(s.YAML))
		if err != nil {
			return nil, errors.Wrap(err, "kubeconfig: invalid yaml")
		}
		return clientcmd.NewNonInteractiveClientConfig(*config, "", overrides, nil), nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	rules.ExplicitPath = s.Path
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides), nil
}
