// Package scopeconfig holds the kubescope CLI settings. They are read from
// (highest precedence first) command line flags, KUBESCOPE_* environment
// variables and $HOME/.kubescope/config.yaml, on top of Default().
package scopeconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "KUBESCOPE"
	fileName  = "config.yaml"
	dirName   = ".kubescope"
	filePerm  = 0o644
	dirPerm   = 0o755
)

var ErrConfigExists = errors.New("config file already exists")

// Config keys double as flag names: a flag named "delete-timeout" sets
// DeleteTimeout, and so does KUBESCOPE_DELETE_TIMEOUT.
type Config struct {
	KubeConfig string `yaml:"kubeconfig,omitempty" mapstructure:"kubeconfig"`
	Context    string `yaml:"context,omitempty" mapstructure:"context"`
	Namespace  string `yaml:"namespace,omitempty" mapstructure:"namespace"`

	// Zero means the per-kind default.
	Timeout       time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	DeleteTimeout time.Duration `yaml:"delete-timeout,omitempty" mapstructure:"delete-timeout"`

	QPS          float32 `yaml:"qps,omitempty" mapstructure:"qps"`
	Burst        int     `yaml:"burst,omitempty" mapstructure:"burst"`
	FieldManager string  `yaml:"field-manager,omitempty" mapstructure:"field-manager"`
}

func Default() Config {
	return Config{
		QPS:          20,
		Burst:        40,
		FieldManager: reaktor.DefaultFieldManager,
	}
}

// DefaultPath is $HOME/.kubescope/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to find home directory")
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Load reads the config file at path (if it exists), the environment and the
// changed flags in flags, and lays them over Default(). An empty path means
// DefaultPath(); a missing file is only an error when path was given
// explicitly.
func Load(fs afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range keys() {
		// AutomaticEnv only applies to keys viper already knows about
		if err := v.BindEnv(key); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	switch {
	case exists:
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	case explicit:
		return nil, errors.Errorf("config file %s does not exist", path)
	}

	if flags != nil {
		var bindErr error
		flags.Visit(func(f *pflag.Flag) {
			if bindErr == nil && lo.Contains(keys(), f.Name) {
				bindErr = v.BindPFlag(f.Name, f)
			}
		})
		if bindErr != nil {
			return nil, errors.WithStack(bindErr)
		}
	}

	loaded := Config{}
	if err := v.Unmarshal(&loaded); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	cfg := Default()
	if err := mergo.Merge(&cfg, loaded, mergo.WithOverride); err != nil {
		return nil, errors.WithStack(err)
	}
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Timeout < 0 || c.DeleteTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.QPS < 0 || c.Burst < 0 {
		return errors.New("qps and burst must not be negative")
	}
	return nil
}

// ReaktorConfig converts the CLI settings into the client configuration.
func (c *Config) ReaktorConfig() *reaktor.Config {
	return &reaktor.Config{
		KubeConfigPath: c.KubeConfig,
		Context:        c.Context,
		Namespace:      c.Namespace,
		FieldManager:   c.FieldManager,
		QPS:            c.QPS,
		Burst:          c.Burst,
	}
}

func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Wrap(err, "failed to yaml marshal config")
	}
	return buf.Bytes(), errors.WithStack(enc.Close())
}

// Write saves c to path. The file is written under an exclusive lock on
// path + ".lock" so concurrent `config init` runs don't interleave. An
// existing file is only replaced when overwrite is set. The lock file is
// created on the OS filesystem, so fs has to be backed by it.
func Write(fs afero.Fs, path string, c *Config, overwrite bool) error {
	if err := fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errors.WithStack(err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.Wrapf(err, "failed to lock %s", path)
	}
	defer func() { _ = lock.Unlock() }()

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists && !overwrite {
		return errors.Wrap(ErrConfigExists, path)
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	return errors.WithStack(afero.WriteFile(fs, path, data, filePerm))
}

func keys() []string {
	return []string{
		"kubeconfig", "context", "namespace", "timeout",
		"delete-timeout", "qps", "burst", "field-manager",
	}
}
