package komponents

import (
	"go.jetpack.io/kubescope/pkg/kubevalidate"
)

const defaultContainerName = "main"

type container struct {
	Name    string
	Image   string
	Command []string
	Args    []string
	Env     map[string]string
	Config  EnvConfig
}

// manifest returns the container entry and the pod volumes it needs.
func (c container) manifest() (map[string]any, []any) {
	name := c.Name
	if name == "" {
		var err error
		if name, err = kubevalidate.ToValidName(c.Image); err != nil {
			name = defaultContainerName
		}
	}

	out := map[string]any{
		"name":  name,
		"image": c.Image,
	}
	if len(c.Command) > 0 {
		out["command"] = stringSlice(c.Command)
	}
	if len(c.Args) > 0 {
		out["args"] = stringSlice(c.Args)
	}
	if len(c.Env) > 0 {
		out["env"] = EnvVars(c.Env)
	}

	var volumes []any
	if c.Config != nil {
		if envFrom := c.Config.ToEnvFrom(); len(envFrom) > 0 {
			out["envFrom"] = envFrom
		}
		if mounts := c.Config.ToVolumeMounts(); len(mounts) > 0 {
			out["volumeMounts"] = mounts
		}
		volumes = c.Config.ToVolumes()
	}
	return out, volumes
}

func stringSlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func stringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
