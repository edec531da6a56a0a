package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrproliu/go-profiling-instrumentation/probe"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiling.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
backend: tracing
facade: example.com/lib/profiling
everything: true
packages:
  - example.com/app/...
log:
  level: debug
  file: /tmp/instrument.log
metrics:
  textfile: /tmp/instrument.prom
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != probe.KindTracing {
		t.Errorf("Backend = %v, want tracing", cfg.Backend)
	}
	if cfg.Facade != "example.com/lib/profiling" {
		t.Errorf("Facade = %q", cfg.Facade)
	}
	if !cfg.Everything {
		t.Error("Everything = false, want true")
	}
	if len(cfg.Packages) != 1 || cfg.Packages[0] != "example.com/app/..." {
		t.Errorf("Packages = %v", cfg.Packages)
	}
	if cfg.Namespace != "profiling" {
		t.Errorf("Namespace = %q, want default", cfg.Namespace)
	}
	if len(cfg.IgnorePackages) != len(DefaultIgnorePackages) {
		t.Errorf("IgnorePackages = %v, want defaults", cfg.IgnorePackages)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/instrument.log" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Metrics.Textfile != "/tmp/instrument.prom" {
		t.Errorf("Metrics.Textfile = %q", cfg.Metrics.Textfile)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv(EnvConfig, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != probe.KindNone {
		t.Errorf("Backend = %v, want none", cfg.Backend)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	path := writeConfig(t, "backend: pprof\nfacade: example.com/prof\n")
	t.Setenv(EnvConfig, path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != probe.KindPprof {
		t.Errorf("Backend = %v, want pprof", cfg.Backend)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "backend: pprof\nfacade: example.com/prof\n")
	t.Setenv("PROFILING_BACKEND", "tracy")
	t.Setenv("PROFILING_FACADE", "example.com/tracy")
	t.Setenv("PROFILING_NAMESPACE", "perf")
	t.Setenv("PROFILING_EVERYTHING", "true")
	t.Setenv("PROFILING_PACKAGES", "example.com/a,example.com/b/...")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != probe.KindTracy {
		t.Errorf("Backend = %v, want tracy", cfg.Backend)
	}
	if cfg.Facade != "example.com/tracy" {
		t.Errorf("Facade = %q", cfg.Facade)
	}
	if cfg.Namespace != "perf" {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if !cfg.Everything {
		t.Error("Everything = false, want true")
	}
	if len(cfg.Packages) != 2 {
		t.Errorf("Packages = %v", cfg.Packages)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown backend",
			content: "backend: dtrace\n",
			wantErr: "unknown backend",
		},
		{
			name:    "missing facade",
			content: "backend: tracing\n",
			wantErr: "facade",
		},
		{
			name:    "bad namespace",
			content: "namespace: \"a b\"\n",
			wantErr: "namespace",
		},
		{
			name:    "bad log level",
			content: "log:\n  level: loud\n",
			wantErr: "log.level",
		},
		{
			name:    "bad everything env",
			content: "",
			env:     map[string]string{"PROFILING_EVERYTHING": "sometimes"},
			wantErr: "PROFILING_EVERYTHING",
		},
		{
			name:    "bad backend env",
			content: "",
			env:     map[string]string{"PROFILING_BACKEND": "dtrace"},
			wantErr: "PROFILING_BACKEND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() error = nil for a missing file")
	}
}
