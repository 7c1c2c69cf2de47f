package kubedeployments

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stern/stern/stern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/komponents"
	"go.jetpack.io/kubescope/pkg/reaktor/reaktortest"
)

func TestSternConfig(t *testing.T) {
	req := require.New(t)
	cluster := reaktortest.New()
	doc, err := reaktor.ToDocument(&komponents.Deployment{
		Name:      "nginx-deployment",
		Namespace: reaktortest.Namespace,
		Image:     "nginx:1.14.2",
	})
	req.NoError(err)
	d, err := New(cluster.Reaktor, doc, nil)
	req.NoError(err)

	var tail int64 = 10
	cfg, err := d.sternConfig(TailOptions{Context: "kind-dev", Container: "^nginx", TailLines: &tail})
	req.NoError(err)
	req.Equal([]string{"default"}, cfg.Namespaces)
	req.Equal("app=nginx-deployment", cfg.LabelSelector.String())
	req.Equal("kind-dev", cfg.ContextName)
	req.Equal(48*time.Hour, cfg.Since)
	req.Equal([]stern.ContainerState{stern.RUNNING, stern.TERMINATED}, cfg.ContainerStates)
	req.True(cfg.ContainerQuery.MatchString("nginx-1-14-2"))
	req.False(cfg.ContainerQuery.MatchString("sidecar-nginx"))
	req.EqualValues(10, *cfg.TailLines)

	_, err = d.sternConfig(TailOptions{Container: "("})
	assert.ErrorContains(t, err, "invalid container query")
}

func TestLogTemplate(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	tmpl, err := makeTemplate()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		PodName, ContainerName, Message string
		PodColor, ContainerColor        *color.Color
	}{
		PodName:        "nginx-deployment-abc12",
		ContainerName:  "nginx",
		Message:        "GET / 200",
		PodColor:       color.New(color.FgRed),
		ContainerColor: color.New(color.FgBlue),
	})
	require.NoError(t, err)
	assert.Equal(t, "nginx-deployment-abc12 nginx GET / 200\n", buf.String())
}
