package command

import (
	"context"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/kubescope"
	"go.jetpack.io/kubescope/pkg/manifest"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/scopeconfig"
	"go.jetpack.io/kubescope/pkg/termlog"
	"go.jetpack.io/kubescope/scopecli/terminal"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// session is everything a command that talks to the cluster needs.
type session struct {
	ctx       context.Context
	cfg       *scopeconfig.Config
	klient    *reaktor.Reaktor
	scope     *kubescope.Scope
	namespace string
	log       *termlog.Logger
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	klient, err := cmdOpts.NewKlient(cfg)
	if err != nil {
		return nil, errorutil.AddUserMessagef(err, "failed to create a client for the cluster")
	}

	log := termlog.New(cmd.OutOrStdout(), terminal.IsInteractive(cmd.OutOrStdout()))
	return &session{
		ctx:    termlog.WithLogger(cmd.Context(), log),
		cfg:    cfg,
		klient: klient,
		scope: kubescope.New(klient,
			kubescope.WithFs(cmdOpts.Fs()),
			kubescope.WithKubeConfig(cfg.KubeConfig, cfg.Context),
		),
		namespace: lo.Ternary(cfg.Namespace != "", cfg.Namespace, klient.Namespace()),
		log:       log,
	}, nil
}

func loadConfig(cmd *cobra.Command) (*scopeconfig.Config, error) {
	cfg, err := scopeconfig.Load(cmdOpts.Fs(), cmdOpts.RootFlags().ConfigPath, cmd.Flags())
	if err != nil {
		return nil, errorutil.AddUserMessagef(err, "invalid kubescope configuration")
	}
	return cfg, nil
}

// waitOptions turns the --timeout/--no-wait flags into wait options.
func waitOptions(timeout time.Duration, noWait bool) []reaktor.WaitOption {
	var opts []reaktor.WaitOption
	if noWait {
		opts = append(opts, reaktor.NoWait())
	}
	if timeout > 0 {
		opts = append(opts, reaktor.WithTimeout(timeout))
	}
	return opts
}

// withUserMessage gives the errors users run into most a readable message.
func withUserMessage(err error) error {
	var notFound *reaktor.NotFoundError
	var apiErr *reaktor.APIError
	var notReady *reaktor.NotReadyError
	switch {
	case errors.As(err, &notFound):
		return errorutil.AddUserMessagef(err, "%s not found", notFound.Ref)
	case errors.As(err, &notReady):
		return errorutil.AddUserMessagef(err, "%s", notReady.Error())
	case manifest.IsValidationError(err):
		return errorutil.AddUserMessagef(err, "invalid manifest")
	case errors.As(err, &apiErr) && apierrors.IsAlreadyExists(apiErr):
		return errorutil.AddUserMessagef(err, "%s already exists", apiErr.Ref)
	case errors.As(err, &apiErr) && apierrors.IsForbidden(apiErr):
		return errorutil.AddUserMessagef(err, "not allowed to %s %s", apiErr.Op, apiErr.Ref)
	}
	return err
}

func printTable(writer io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
