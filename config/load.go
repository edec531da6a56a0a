package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mrproliu/go-profiling-instrumentation/probe"
)

// EnvConfig names the configuration file when no path is given, which is how
// toolexec mode finds it.
const EnvConfig = "PROFILING_CONFIG"

// Load reads the YAML file at path, applies defaults and environment overrides, and
// validates the result. An empty path falls back to $PROFILING_CONFIG, and to defaults
// plus environment when that is empty too.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read configuration file %q", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse configuration file %q", path)
		}
	}
	ApplyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return &cfg, nil
}

// applyEnvOverrides follows the PROFILING_FIELD naming; environment always wins over the file.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PROFILING_BACKEND"); v != "" {
		var kind probe.Kind
		if err := kind.UnmarshalText([]byte(v)); err != nil {
			return errors.Wrap(err, "PROFILING_BACKEND")
		}
		cfg.Backend = kind
	}
	if v := os.Getenv("PROFILING_FACADE"); v != "" {
		cfg.Facade = v
	}
	if v := os.Getenv("PROFILING_NAMESPACE"); v != "" {
		cfg.Namespace = v
	}
	if v := os.Getenv("PROFILING_EVERYTHING"); v != "" {
		everything, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "PROFILING_EVERYTHING")
		}
		cfg.Everything = everything
	}
	if v := os.Getenv("PROFILING_PACKAGES"); v != "" {
		cfg.Packages = strings.Split(v, ",")
	}
	if v := os.Getenv("PROFILING_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("PROFILING_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}
