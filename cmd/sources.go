package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/packages"

	"github.com/mrproliu/go-profiling-instrumentation/instrument"
)

// resolveSources turns the command arguments into source file names. Arguments ending in
// .go are files; anything else is a package pattern for the go command.
func resolveSources(args []string) ([]string, error) {
	var files, patterns []string
	for _, arg := range args {
		if strings.HasSuffix(arg, ".go") {
			files = append(files, arg)
		} else {
			patterns = append(patterns, arg)
		}
	}
	if len(patterns) == 0 {
		return files, nil
	}

	pkgs, err := packages.Load(&packages.Config{Mode: packages.NeedName | packages.NeedFiles}, patterns...)
	if err != nil {
		return nil, errors.Wrap(err, "load packages")
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, errors.Errorf("package %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
		files = append(files, pkg.GoFiles...)
	}
	return files, nil
}

// sourceResult pairs a file with what the instrumenter made of it.
type sourceResult struct {
	path   string
	mode   os.FileMode
	result *instrument.Result
}

// instrumentAll processes every file before anything is written, so one bad file leaves
// the whole tree untouched.
func instrumentAll(s *session, files []string) ([]sourceResult, error) {
	results := make([]sourceResult, 0, len(files))
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		result, err := s.instrumenter.Source(path, src)
		if err != nil {
			return nil, err
		}
		results = append(results, sourceResult{path: path, mode: info.Mode().Perm(), result: result})
	}
	return results, nil
}

// outputPath mirrors path under dir, relative to the working directory when possible.
func outputPath(dir, path string) string {
	rel := path
	if filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			if r, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(r, "..") {
				rel = r
			} else {
				rel = filepath.Base(path)
			}
		}
	} else if strings.HasPrefix(filepath.Clean(path), "..") {
		rel = filepath.Base(path)
	}
	return filepath.Join(dir, rel)
}
