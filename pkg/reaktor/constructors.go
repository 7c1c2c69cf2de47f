package reaktor

import (
	"github.com/pkg/errors"
	"go.jetpack.io/kubescope/pkg/reaktor/kubeconfig"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

type Config struct {
	// Provide either a path to a kubeconfig or the yaml contents. Both can be
	// left empty and we'll search for the kubeconfig in the default places
	// (including ~/.kube and in-cluster)
	KubeConfigPath string
	KubeConfigYAML string

	Context      string // kubeconfig context; empty means current-context
	Namespace    string // overrides the context's namespace
	FieldManager string
	QPS          float32
	Burst        int
}

type Option func(*Config)

func New(opts ...Option) (*Reaktor, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	c, err := NewWithConfig(cfg)
	return c, errors.WithStack(err)
}

func WithYAML(yaml string) Option {
	return func(c *Config) {
		c.KubeConfigYAML = yaml
	}
}

func WithFile(kubeConfigPath string) Option {
	return func(c *Config) {
		c.KubeConfigPath = kubeConfigPath
	}
}

func WithContext(context string) Option {
	return func(c *Config) {
		c.Context = context
	}
}

func WithNamespace(ns string) Option {
	return func(c *Config) {
		c.Namespace = ns
	}
}

// NewWithConfig builds a Reaktor from the kubeconfig cfg points at.
func NewWithConfig(cfg *Config) (*Reaktor, error) {
	source := kubeconfig.Source{Path: cfg.KubeConfigPath, YAML: cfg.KubeConfigYAML}
	if err := source.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	if cfg.QPS < 0 || cfg.Burst < 0 {
		return nil, errors.Errorf("reaktor: qps and burst must not be negative (got %v, %d)", cfg.QPS, cfg.Burst)
	}

	klient, err := WithClientBuilder(kubeconfig.NewClientBuilder(source, kubeconfig.Flags{
		Context:   cfg.Context,
		Namespace: cfg.Namespace,
		QPS:       cfg.QPS,
		Burst:     cfg.Burst,
	}))
	if err != nil {
		return nil, err
	}
	if cfg.FieldManager != "" {
		klient.fieldManager = cfg.FieldManager
	}
	return klient, nil
}

func WithClientBuilder(builder kubeconfig.ClientBuilder) (*Reaktor, error) {
	restConfig, err := builder.ToRESTConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load kubeconfig")
	}

	dynamicClient, err := builder.ToDynamicClient()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	clientset, err := builder.ToClientset()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	mapper, err := builder.ToRESTMapper()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	rawConfig, err := builder.ToRawClientConfig()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	ns, _, err := rawConfig.Namespace()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve namespace")
	}

	return NewForClients(Clients{
		Dynamic:    dynamicClient,
		Clientset:  clientset,
		Mapper:     mapper,
		RESTConfig: restConfig,
		Namespace:  ns,
	}), nil
}

// Clients is everything a Reaktor needs. Tests fill it with the fakes from
// reaktortest; RESTConfig can stay nil, in which case Exec is unavailable.
type Clients struct {
	Dynamic      dynamic.Interface
	Clientset    kubernetes.Interface
	Mapper       meta.RESTMapper
	RESTConfig   *rest.Config
	Namespace    string
	FieldManager string
}

func NewForClients(c Clients) *Reaktor {
	fieldManager := c.FieldManager
	if fieldManager == "" {
		fieldManager = DefaultFieldManager
	}
	return &Reaktor{
		dynamicClient: c.Dynamic,
		clientset:     c.Clientset,
		mapper:        c.Mapper,
		restConfig:    c.RESTConfig,
		fieldManager:  fieldManager,
		namespace:     c.Namespace,
	}
}
