package mock

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/scopeconfig"
	"go.jetpack.io/kubescope/scopecli/flags"
)

// CmdOptions serves the commands from an in-memory filesystem and a fixed
// client, usually one from reaktortest.
type CmdOptions struct {
	RootCMDFlags *flags.RootCmdFlags
	FS           afero.Fs
	Klient       *reaktor.Reaktor
}

func (*CmdOptions) AdditionalCommands() []*cobra.Command {
	return nil
}

func (m *CmdOptions) Fs() afero.Fs {
	if m.FS == nil {
		m.FS = afero.NewMemMapFs()
	}
	return m.FS
}

func (m *CmdOptions) NewKlient(cfg *scopeconfig.Config) (*reaktor.Reaktor, error) {
	return m.Klient, nil
}

func (m *CmdOptions) RootFlags() *flags.RootCmdFlags {
	return m.RootCMDFlags
}

func (m *CmdOptions) RootCommand() *cobra.Command {
	return &cobra.Command{}
}
