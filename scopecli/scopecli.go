// Copyright 2022 Jetpack Technologies Inc and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package scopecli

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/scopeconfig"
	"go.jetpack.io/kubescope/scopecli/command"
	"go.jetpack.io/kubescope/scopecli/flags"
)

type KlientFactory func(cfg *scopeconfig.Config) (*reaktor.Reaktor, error)

type Scopecli struct {
	additionalCommands []*cobra.Command
	fs                 afero.Fs
	klientFactory      KlientFactory
	rootCommand        *cobra.Command
	rootFlags          *flags.RootCmdFlags
}

type scopecliOption func(*Scopecli)

func New(opts ...scopecliOption) *Scopecli {
	s := &Scopecli{
		fs:        afero.NewOsFs(),
		rootFlags: &flags.RootCmdFlags{},
		klientFactory: func(cfg *scopeconfig.Config) (*reaktor.Reaktor, error) {
			return reaktor.NewWithConfig(cfg.ReaktorConfig())
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scopecli) Run(ctx context.Context) {
	command.Execute(ctx, s)
}

func (s *Scopecli) AdditionalCommands() []*cobra.Command {
	return s.additionalCommands
}

func (s *Scopecli) Fs() afero.Fs {
	return s.fs
}

func (s *Scopecli) NewKlient(cfg *scopeconfig.Config) (*reaktor.Reaktor, error) {
	return s.klientFactory(cfg)
}

func (s *Scopecli) RootFlags() *flags.RootCmdFlags {
	return s.rootFlags
}

func (s *Scopecli) RootCommand() *cobra.Command {
	if s.rootCommand == nil {
		s.rootCommand = command.NewRootCmd(s)
	}
	return s.rootCommand
}

// Options
type cmdFunc func(s *Scopecli) *cobra.Command

func WithAdditionalCommands(cmds ...cmdFunc) scopecliOption {
	return func(s *Scopecli) {
		for _, cmd := range cmds {
			s.additionalCommands = append(s.additionalCommands, cmd(s))
		}
	}
}

func WithFs(fs afero.Fs) scopecliOption {
	return func(s *Scopecli) {
		s.fs = fs
	}
}

// WithKlientFactory replaces how the cluster client is built from the
// resolved configuration, e.g. to point the CLI at fake clients.
func WithKlientFactory(f KlientFactory) scopecliOption {
	return func(s *Scopecli) {
		s.klientFactory = f
	}
}
