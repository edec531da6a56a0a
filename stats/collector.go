// Package stats counts what a rewrite invocation did to the declarations it visited.
package stats

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns a private registry so several invocations in one process never share counters.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry     *prometheus.Registry
	declarations *prometheus.CounterVec
	files        *prometheus.CounterVec
}

// NewCollector registers the rewrite counters on registry, or on a fresh registry when nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := &Collector{
		registry: registry,
		declarations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profiling",
			Subsystem: "instrument",
			Name:      "declarations_total",
			Help:      "Function declarations visited, by driver and outcome.",
		}, []string{"driver", "outcome"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profiling",
			Subsystem: "instrument",
			Name:      "files_total",
			Help:      "Source files processed, by result.",
		}, []string{"result"}),
	}
	registry.MustRegister(c.declarations, c.files)
	return c
}

func (c *Collector) ObserveDeclaration(driver, outcome string) {
	if c == nil {
		return
	}
	c.declarations.WithLabelValues(driver, outcome).Inc()
}

func (c *Collector) ObserveFile(result string) {
	if c == nil {
		return
	}
	c.files.WithLabelValues(result).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// WriteTextfile dumps the counters in the text exposition format, for the node exporter
// textfile collector or a CI artifact.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
