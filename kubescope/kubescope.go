// Package kubescope drives scoped runs of pods and deployments: load a
// manifest, create the resource, wait for it, use it and tear it down. It is
// what the kubescope CLI calls into.
package kubescope

import (
	"github.com/spf13/afero"
	"go.jetpack.io/kubescope/pkg/reaktor"
)

type Scope struct {
	klient *reaktor.Reaktor
	fs     afero.Fs

	// stern builds its own clients, so deployment logs need these
	kubeConfig  string
	kubeContext string
}

type Option func(*Scope)

func New(klient *reaktor.Reaktor, opts ...Option) *Scope {
	s := &Scope{klient: klient, fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithFs sets the filesystem manifests and env files are read from.
func WithFs(fs afero.Fs) Option {
	return func(s *Scope) { s.fs = fs }
}

func WithKubeConfig(path, context string) Option {
	return func(s *Scope) {
		s.kubeConfig = path
		s.kubeContext = context
	}
}

func (s *Scope) Klient() *reaktor.Reaktor {
	return s.klient
}
