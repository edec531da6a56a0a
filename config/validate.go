package config

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"

	"github.com/mrproliu/go-profiling-instrumentation/probe"
)

var (
	namespacePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
	logLevels        = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate checks the settings that would otherwise surface as broken output.
func Validate(cfg *Config) error {
	if _, err := cfg.Backend.MarshalText(); err != nil {
		return errors.Wrap(err, "backend")
	}
	if cfg.Backend != probe.KindNone && cfg.Facade == "" {
		return fmt.Errorf("facade: backend %s needs the import path of the profiling facade", cfg.Backend)
	}
	if !namespacePattern.MatchString(cfg.Namespace) {
		return fmt.Errorf("namespace: %q is not a valid directive namespace", cfg.Namespace)
	}
	if !logLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	for _, p := range cfg.Packages {
		if p == "" {
			return errors.New("packages: empty pattern")
		}
	}
	return nil
}
