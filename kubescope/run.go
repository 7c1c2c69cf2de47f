package kubescope

import (
	"context"
	"io"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.jetpack.io/kubescope/goutil/errorutil"
	"go.jetpack.io/kubescope/pkg/manifest"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/kubedeployments"
	"go.jetpack.io/kubescope/pkg/reaktor/kubepods"
	"go.jetpack.io/kubescope/pkg/termlog"
)

// ManifestOptions says where the manifest of a run comes from.
type ManifestOptions struct {
	Path string
	// Overrides are merged onto the manifest in order.
	Overrides []string
	// EnvFile is a .env file whose variables are added to every container.
	EnvFile string
	// DefaultNamespace fills metadata.namespace when the manifest leaves it
	// out.
	DefaultNamespace string
}

type RunOptions struct {
	ManifestOptions

	// Exec commands run one after the other once the resource is ready.
	// Pods only.
	Exec      []string
	Container string
	// Logs prints the logs of the resource before it is torn down.
	Logs bool

	Timeout       time.Duration // zero means the kind's default
	DeleteTimeout time.Duration
	AllowUnready  bool
}

// LoadManifest reads the manifest, applies the overrides and injects the env
// file. The result is not validated beyond being a single document.
func (s *Scope) LoadManifest(opts ManifestOptions) (manifest.Document, error) {
	if opts.Path == "" {
		return nil, errorutil.NewUserError("a manifest file is required (-f)")
	}
	doc, err := manifest.LoadOne(s.fs, opts.Path)
	if err != nil {
		return nil, errorutil.AddUserMessagef(err, "failed to load manifest %s", opts.Path)
	}

	for _, path := range opts.Overrides {
		override, err := manifest.LoadOne(s.fs, path)
		if err != nil {
			return nil, errorutil.AddUserMessagef(err, "failed to load override %s", path)
		}
		doc = manifest.Merge(doc, override)
	}

	if doc.Namespace() == "" && opts.DefaultNamespace != "" {
		doc = manifest.Merge(doc, manifest.Document{
			"metadata": map[string]any{"namespace": opts.DefaultNamespace},
		})
	}

	if opts.EnvFile != "" {
		f, err := s.fs.Open(opts.EnvFile)
		if err != nil {
			return nil, errorutil.AddUserMessagef(err, "failed to open env file %s", opts.EnvFile)
		}
		defer f.Close()
		env, err := godotenv.Parse(f)
		if err != nil {
			return nil, errorutil.AddUserMessagef(err, "failed to parse env file %s", opts.EnvFile)
		}
		if doc, err = manifest.InjectEnv(doc, env); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Run creates the resource described by opts, waits until it is ready, runs
// the exec commands, prints logs if asked to, and deletes the resource again.
// The resource is deleted on every path once it was created.
func (s *Scope) Run(ctx context.Context, opts RunOptions) error {
	doc, err := s.LoadManifest(opts.ManifestOptions)
	if err != nil {
		return err
	}
	if len(opts.Exec) > 0 && doc.Kind() != KindPod {
		return errorutil.NewUserErrorf("--exec is only supported for pods, not %s", doc.Kind())
	}

	obj, err := NewManaged(s.klient, doc)
	if err != nil {
		return err
	}
	log := termlog.FromContext(ctx)
	log.HeaderPrintf("Creating %s %s", doc.Kind(), obj.NamespacedName())

	return reaktor.WithResource(ctx, obj, func(ctx context.Context) error {
		log.HeaderPrintf("%s %s is ready", doc.Kind(), obj.NamespacedName())
		switch o := obj.(type) {
		case *kubepods.Pod:
			return s.runPod(ctx, o, opts)
		case *kubedeployments.Deployment:
			return s.runDeployment(ctx, o, opts)
		}
		return nil
	}, scopeOptions(opts)...)
}

func (s *Scope) runPod(ctx context.Context, pod *kubepods.Pod, opts RunOptions) error {
	log := termlog.FromContext(ctx)
	for _, command := range opts.Exec {
		log.HeaderPrintf("exec: %s", command)
		stdout, stderr, err := pod.ExecOutput(ctx, opts.Container, command)
		log.Print(stdout)
		log.Print(stderr)
		if err != nil {
			return errors.Wrapf(err, "exec %q", command)
		}
	}
	if !opts.Logs {
		return nil
	}

	containers := pod.Containers()
	if opts.Container != "" {
		containers = []string{opts.Container}
	}
	for _, c := range containers {
		log.HeaderPrintf("logs: %s", c)
		if err := copyLogs(ctx, log, pod, c, reaktor.LogOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scope) runDeployment(ctx context.Context, d *kubedeployments.Deployment, opts RunOptions) error {
	if !opts.Logs {
		return nil
	}
	log := termlog.FromContext(ctx)
	log.HeaderPrintf("logs: %s", d.NamespacedName())
	return d.TailLogs(ctx, kubedeployments.TailOptions{
		KubeConfig: s.kubeConfig,
		Context:    s.kubeContext,
		Container:  opts.Container,
		Out:        log,
		ErrOut:     log,
	})
}

func copyLogs(ctx context.Context, w io.Writer, pod *kubepods.Pod, container string, opts reaktor.LogOptions) error {
	stream, err := pod.Logs(ctx, container, opts)
	if err != nil {
		return err
	}
	defer stream.Close()
	_, err = io.Copy(w, stream)
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return errors.Wrapf(err, "failed to read logs of %s", pod.NamespacedName())
}

func scopeOptions(opts RunOptions) []reaktor.ScopeOption {
	var out []reaktor.ScopeOption
	if opts.AllowUnready {
		out = append(out, reaktor.AllowUnready())
	}
	if opts.Timeout > 0 {
		out = append(out, reaktor.WithAwaitOptions(reaktor.WithTimeout(opts.Timeout)))
	}
	if opts.DeleteTimeout > 0 {
		out = append(out,
			reaktor.WithDeleteOptions(reaktor.WithTimeout(opts.DeleteTimeout)),
			reaktor.WithReleaseTimeout(opts.DeleteTimeout+30*time.Second),
		)
	}
	return out
}
