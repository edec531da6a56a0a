package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/mrproliu/go-profiling-instrumentation/config"
)

// selectPackage decides whether a compile of pkg is rewritten at all. The package has to
// be wanted by the configuration and has to see the facade through its importcfg, since
// the compiler cannot resolve an import the go command did not plan for.
func selectPackage(cfg *config.Config, opt *compileOptions) (bool, error) {
	pkg := opt.Package
	if pkg == cfg.Facade || strings.HasPrefix(pkg, cfg.Facade+"/") {
		return false, nil
	}
	for _, prefix := range cfg.IgnorePackages {
		if hasPathPrefix(pkg, prefix) {
			return false, nil
		}
	}
	if !matchPackage(cfg.Packages, pkg) {
		return false, nil
	}
	if cfg.Facade == "" {
		return true, nil
	}
	if opt.ImportCfg == "" {
		return false, nil
	}
	return providesFacade(opt.ImportCfg, cfg.Facade)
}

// matchPackage reports whether pkg matches one of the patterns; "a/b/..." matches a/b and
// everything below it. No patterns match every package.
func matchPackage(patterns []string, pkg string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if base, ok := strings.CutSuffix(p, "/..."); ok {
			if hasPathPrefix(pkg, base) {
				return true
			}
			continue
		}
		if p == pkg {
			return true
		}
	}
	return false
}

func hasPathPrefix(pkg, prefix string) bool {
	return pkg == prefix || strings.HasPrefix(pkg, prefix+"/")
}

// providesFacade scans an importcfg for a "packagefile <facade>=..." line.
func providesFacade(importcfg, facade string) (bool, error) {
	f, err := os.Open(importcfg)
	if err != nil {
		return false, errors.Wrap(err, "open importcfg")
	}
	defer f.Close()

	want := "packagefile " + facade + "="
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), want) {
			return true, nil
		}
	}
	return false, errors.Wrap(scanner.Err(), "read importcfg")
}
