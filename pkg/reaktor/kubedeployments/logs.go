package kubedeployments

import (
	"context"
	"encoding/json"
	"io"
	"regexp"
	"text/template"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stern/stern/stern"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/labels"
)

var matchAllRegex = regexp.MustCompile(".*")

const logTemplate = "{{color .PodColor .PodName}} {{color .ContainerColor .ContainerName}} {{.Message}}\n"

type TailOptions struct {
	// stern builds its own clients, so it needs the kubeconfig file and
	// context rather than the Reaktor.
	KubeConfig string
	Context    string

	Container  string // regexp; empty matches every container
	Follow     bool
	TailLines  *int64
	Since      time.Duration // zero means 48h, like kubectl
	Timestamps bool

	Out    io.Writer
	ErrOut io.Writer
}

// TailLogs prints the logs of every pod of the deployment, prefixed with pod
// and container names. With Follow it keeps streaming, picking up pods as
// they come and go, until ctx is cancelled.
func (d *Deployment) TailLogs(ctx context.Context, opts TailOptions) error {
	cfg, err := d.sternConfig(opts)
	if err != nil {
		return err
	}
	err = stern.Run(ctx, cfg)
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return errors.Wrapf(err, "failed to tail logs of %s", d.NamespacedName())
}

func (d *Deployment) sternConfig(opts TailOptions) (*stern.Config, error) {
	selector, err := d.Selector()
	if err != nil {
		return nil, err
	}
	labelSelector, err := labels.Parse(selector)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse selector (%s) as label selector", selector)
	}

	containerQuery := matchAllRegex
	if opts.Container != "" {
		containerQuery, err = regexp.Compile(opts.Container)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid container query %q", opts.Container)
		}
	}

	tmpl, err := makeTemplate()
	if err != nil {
		return nil, errors.Wrap(err, "failed to make template")
	}

	since := opts.Since
	if since <= 0 {
		since = 48 * time.Hour
	}

	return &stern.Config{
		KubeConfig:          opts.KubeConfig,
		ContextName:         opts.Context,
		ContainerQuery:      containerQuery,
		ContainerStates:     []stern.ContainerState{stern.RUNNING, stern.TERMINATED},
		FieldSelector:       fields.Everything(),
		Follow:              opts.Follow,
		InitContainers:      true,
		EphemeralContainers: true,
		LabelSelector:       labelSelector,
		// printing breaks with a nil location
		Location:   time.Local,
		Namespaces: []string{d.Namespace()},
		PodQuery:   matchAllRegex,
		Since:      since,
		TailLines:  opts.TailLines,
		Timestamps: opts.Timestamps,
		Template:   tmpl,

		Out:    opts.Out,
		ErrOut: opts.ErrOut,
	}, nil
}

// adapted from https://github.com/stern/stern/blob/master/cmd/cmd.go
func makeTemplate() (*template.Template, error) {
	funcs := map[string]any{
		"json": func(in any) (string, error) {
			b, err := json.Marshal(in)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
		"parseJSON": func(text string) (map[string]any, error) {
			obj := make(map[string]any)
			if err := json.Unmarshal([]byte(text), &obj); err != nil {
				return obj, err
			}
			return obj, nil
		},
		"color": func(color color.Color, text string) string {
			return color.SprintFunc()(text)
		},
	}
	t, err := template.New("log").Funcs(funcs).Parse(logTemplate)
	return t, errors.Wrap(err, "unable to parse template")
}
