package config

import (
	"github.com/mrproliu/go-profiling-instrumentation/instrument"
)

// DefaultIgnorePackages cannot take a probe: the runtime and the packages it is built
// from run before, or underneath, any profiling backend.
var DefaultIgnorePackages = []string{
	"runtime",
	"internal",
	"sync",
	"unsafe",
	"syscall",
	"reflect",
	"time",
	"os",
	"vendor",
}

func ApplyDefaults(cfg *Config) {
	if cfg.Namespace == "" {
		cfg.Namespace = instrument.DefaultNamespace
	}
	if cfg.IgnorePackages == nil {
		cfg.IgnorePackages = append([]string(nil), DefaultIgnorePackages...)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
