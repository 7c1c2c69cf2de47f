package komponents

import (
	"fmt"
	"sort"
)

const secretsMountPath = "/var/run/secrets/kubescope"
const configMapMountPath = "/var/run/config/kubescope"

// EnvConfig adds configuration sources to a container beyond literal env
// entries.
type EnvConfig interface {
	ToEnvFrom() []any
	ToVolumes() []any
	ToVolumeMounts() []any
}

// ConfigRef exposes an existing ConfigMap and/or Secret to the container, both
// as environment variables and as read-only files.
type ConfigRef struct {
	ConfigMapRef string
	SecretsRef   string
}

// ConfigRef implements interface EnvConfig (compile-time check)
var _ EnvConfig = (*ConfigRef)(nil)

func (c *ConfigRef) ToEnvFrom() []any {
	res := []any{}
	if c == nil {
		return res
	}

	if c.ConfigMapRef != "" {
		res = append(res, map[string]any{
			"configMapRef": map[string]any{"name": c.ConfigMapRef},
		})
	}
	if c.SecretsRef != "" {
		res = append(res, map[string]any{
			"secretRef": map[string]any{"name": c.SecretsRef},
		})
	}
	return res
}

func (c *ConfigRef) ToVolumes() []any {
	res := []any{}
	if c == nil {
		return res
	}

	if c.ConfigMapRef != "" {
		res = append(res, map[string]any{
			"name":      c.configMapMountName(),
			"configMap": map[string]any{"name": c.ConfigMapRef},
		})
	}
	if c.SecretsRef != "" {
		res = append(res, map[string]any{
			"name":   c.secretMountName(),
			"secret": map[string]any{"secretName": c.SecretsRef},
		})
	}
	return res
}

func (c *ConfigRef) ToVolumeMounts() []any {
	res := []any{}
	if c == nil {
		return res
	}

	if c.ConfigMapRef != "" {
		res = append(res, map[string]any{
			"name":      c.configMapMountName(),
			"mountPath": configMapMountPath,
			"readOnly":  true,
		})
	}
	if c.SecretsRef != "" {
		res = append(res, map[string]any{
			"name":      c.secretMountName(),
			"mountPath": secretsMountPath,
			"readOnly":  true,
		})
	}
	return res
}

func (c *ConfigRef) secretMountName() string {
	return fmt.Sprintf("secret-mount-%s", c.SecretsRef)
}

func (c *ConfigRef) configMapMountName() string {
	return fmt.Sprintf("config-map-mount-%s", c.ConfigMapRef)
}

// EnvVars renders env as container env entries, sorted by name.
func EnvVars(env map[string]string) []any {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	res := make([]any, 0, len(names))
	for _, name := range names {
		res = append(res, map[string]any{"name": name, "value": env[name]})
	}
	return res
}
