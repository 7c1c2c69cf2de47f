/*
Copyright 2021 Jetpack Technologies Inc.
Copyright 2014 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.

You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

The discovery cache layout is extracted from:
https://github.com/kubernetes/cli-runtime/blob/master/pkg/genericclioptions/config_flags.go
*/
package kubeconfig

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	diskcached "k8s.io/client-go/discovery/cached/disk"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

const (
	// Discovery issues a request per group version, so it gets more burst
	// than regular calls.
	discoveryBurst = 100
	discoveryTTL   = 10 * time.Minute
)

var defaultCacheDir = filepath.Join(homedir.HomeDir(), ".kube", "cache")

// ClientBuilder turns one kubeconfig into every client a Reaktor needs.
type ClientBuilder interface {
	ToRESTConfig() (*rest.Config, error)
	ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error)
	ToRESTMapper() (meta.RESTMapper, error)
	ToRawClientConfig() (clientcmd.ClientConfig, error)
	ToDynamicClient() (dynamic.Interface, error)
	ToClientset() (kubernetes.Interface, error)
}

var _ ClientBuilder = (*clientbuilder)(nil)

type clientbuilder struct {
	source Source
	flags  Flags

	// the kubeconfig is read once and shared by every client
	once         sync.Once
	clientConfig clientcmd.ClientConfig
	err          error
}

func NewClientBuilder(source Source, flags Flags) ClientBuilder {
	if flags.CacheDir == "" {
		flags.CacheDir = defaultCacheDir
	}
	return &clientbuilder{source: source, flags: flags}
}

func (b *clientbuilder) ToRawClientConfig() (clientcmd.ClientConfig, error) {
	b.once.Do(func() {
		b.clientConfig, b.err = b.source.clientConfig(b.flags.overrides())
	})
	return b.clientConfig, b.err
}

func (b *clientbuilder) ToRESTConfig() (*rest.Config, error) {
	rc, err := b.ToRawClientConfig()
	if err != nil {
		return nil, err
	}
	c, err := rc.ClientConfig()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", b.source)
	}
	if b.flags.QPS > 0 {
		c.QPS = b.flags.QPS
	}
	if b.flags.Burst > 0 {
		c.Burst = b.flags.Burst
	}
	return c, nil
}

// ToDiscoveryClient returns a discovery client cached on disk under
// Flags.CacheDir, one directory per API server.
func (b *clientbuilder) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	config, err := b.ToRESTConfig()
	if err != nil {
		return nil, err
	}
	config.Burst = discoveryBurst

	httpCacheDir := filepath.Join(b.flags.CacheDir, "http")
	discoveryCacheDir := computeDiscoverCacheDir(filepath.Join(b.flags.CacheDir, "discovery"), config.Host)
	client, err := diskcached.NewCachedDiscoveryClientForConfig(config, discoveryCacheDir, httpCacheDir, discoveryTTL)
	return client, errors.WithStack(err)
}

func (b *clientbuilder) ToRESTMapper() (meta.RESTMapper, error) {
	discoveryClient, err := b.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}

	mapper := restmapper.NewDeferredDiscoveryRESTMapper(discoveryClient)
	return restmapper.NewShortcutExpander(mapper, discoveryClient), nil
}

func (b *clientbuilder) ToDynamicClient() (dynamic.Interface, error) {
	cfg, err := b.ToRESTConfig()
	if err != nil {
		return nil, err
	}
	client, err := dynamic.NewForConfig(cfg)
	return client, errors.WithStack(err)
}

func (b *clientbuilder) ToClientset() (kubernetes.Interface, error) {
	cfg, err := b.ToRESTConfig()
	if err != nil {
		return nil, err
	}
	client, err := kubernetes.NewForConfig(cfg)
	return client, errors.WithStack(err)
}

// overlyCautiousIllegalFileCharacters matches characters that *might* not be
// supported. Windows is really restrictive, so this is really restrictive.
var overlyCautiousIllegalFileCharacters = regexp.MustCompile(`[^(\w/\.)]`)

// computeDiscoverCacheDir takes the parentDir and the host and comes up with a
// "usually non-colliding" name.
func computeDiscoverCacheDir(parentDir, host string) string {
	schemelessHost := strings.Replace(strings.Replace(host, "https://", "", 1), "http://", "", 1)
	safeHost := overlyCautiousIllegalFileCharacters.ReplaceAllString(schemelessHost, "_")
	return filepath.Join(parentDir, safeHost)
}
