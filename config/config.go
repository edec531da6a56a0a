// Package config holds the settings of an instrumentation run. The backend is chosen
// once, before any file is rewritten, and stays the same for the whole run.
package config

import (
	"github.com/mrproliu/go-profiling-instrumentation/probe"
)

// Config is the root of the YAML configuration file.
type Config struct {
	// Backend selects the probe strategy: none, pprof, fgprof, tracy, superluminal or tracing.
	Backend probe.Kind `yaml:"backend"`

	// Facade is the import path of the package the probes call into.
	Facade string `yaml:"facade"`

	// Namespace of the directive comments (//<namespace>:skip ...).
	Namespace string `yaml:"namespace"`

	// Everything instruments every file as if it carried the everything directive.
	Everything bool `yaml:"everything"`

	// Packages limits toolexec mode to these import paths ("example.com/app/..." matches
	// the subtree). Empty means every package that is not ignored.
	Packages []string `yaml:"packages"`

	// IgnorePackages are import path prefixes never instrumented in toolexec mode.
	IgnorePackages []string `yaml:"ignore_packages"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// File receives the log; in toolexec mode it is the only output.
	File string `yaml:"file"`
}

type MetricsConfig struct {
	// Textfile is written in the Prometheus text format at the end of a run.
	Textfile string `yaml:"textfile"`
}
