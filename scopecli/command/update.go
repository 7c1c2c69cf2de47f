package command

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/kubescope"
	"go.jetpack.io/kubescope/pkg/manifest"
)

func updateCmd() *cobra.Command {
	var patch, patchFile string

	cmd := &cobra.Command{
		Use:   "update (pod|deployment) NAME (--patch PATCH | --patch-file FILE)",
		Short: "Applies a JSON merge patch to a pod or deployment",
		Example: `  kubescope update pod sample-pod --patch '{"metadata": {"labels": {"tier": "test"}}}'
  kubescope update deployment nginx-deployment --patch-file replicas.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kubescope.ParseKind(args[0])
			if err != nil {
				return err
			}
			if (patch == "") == (patchFile == "") {
				return errorutil.NewUserError("exactly one of --patch and --patch-file is required")
			}

			data := []byte(patch)
			if patchFile != "" {
				if data, err = afero.ReadFile(cmdOpts.Fs(), patchFile); err != nil {
					return errorutil.AddUserMessagef(err, "failed to read %s", patchFile)
				}
			}
			doc, err := manifest.ParseOne(data)
			if err != nil {
				return errorutil.AddUserMessagef(err, "the patch must be a YAML or JSON object")
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			obj, err := kubescope.Get(s.ctx, s.klient, kind, s.namespace, args[1])
			if err != nil {
				return err
			}
			if err := obj.Update(s.ctx, doc); err != nil {
				return err
			}
			s.log.HeaderPrintf("%s %s updated", kind, obj.NamespacedName())
			return nil
		},
	}

	cmd.Flags().StringVar(&patch, "patch", "", "the merge patch, as JSON or YAML")
	cmd.Flags().StringVar(&patchFile, "patch-file", "", "file holding the merge patch")
	return cmd
}
