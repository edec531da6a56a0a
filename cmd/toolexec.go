package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrproliu/go-profiling-instrumentation/config"
	"github.com/mrproliu/go-profiling-instrumentation/instrument"
)

var toolexecCmd = &cobra.Command{
	Use:   "toolexec <tool> [args...]",
	Short: "Wrap the go toolchain and instrument packages while they compile",
	Long: `Used as the -toolexec program of the go command. Every compile of a selected package
gets its sources rewritten into the build directory before the compiler runs; the files in
the module are never modified.

A package is selected when it matches the configured packages, is not ignored, and
imports the facade package (a blank import is enough).

The configuration is read from $` + config.EnvConfig + `, flags are not available here.

Example:
  PROFILING_CONFIG=$PWD/profiling.yaml go build -toolexec "profiling-instrument toolexec" ./...`,
	DisableFlagParsing: true,
	RunE:               runToolexec,
}

func init() {
	rootCmd.AddCommand(toolexecCmd)
}

func runToolexec(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("toolexec: missing tool command")
	}
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logger, err := newFileLogger(cfg)
	if err != nil {
		return err
	}
	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	logger.Debug("tool invoked", zap.Strings("args", args))
	option := parseCompileOption(args)
	if option != nil && option.Package != "" && option.Output != "" {
		selected, err := selectPackage(cfg, option)
		if err != nil {
			return errors.Wrapf(err, "package %s", option.Package)
		}
		if selected {
			newArgs, err := instrumentCompile(s, args, option)
			if err != nil {
				return errors.Wrapf(err, "package %s", option.Package)
			}
			args = newArgs
		}
	}
	if err := s.close(); err != nil {
		return err
	}
	return exitWith(executeCommand(args))
}

// instrumentCompile rewrites the .go arguments of a compile into the build directory and
// points the argument list at the rewritten copies. Nothing is written unless every file
// of the package was processed.
func instrumentCompile(s *session, args []string, opt *compileOptions) ([]string, error) {
	buildDir := filepath.Dir(opt.Output)

	results := make(map[int]*instrument.Result)
	for inx, path := range args {
		if !strings.HasSuffix(path, ".go") {
			continue
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		result, err := s.instrumenter.Source(path, src)
		if err != nil {
			return nil, err
		}
		if result.Changed {
			results[inx] = result
		}
	}

	newArgs := append([]string(nil), args...)
	for inx, result := range results {
		src := args[inx]
		dest := filepath.Join(buildDir, "profiling_"+filepath.Base(src))
		content := append([]byte(fmt.Sprintf("//line %s:1\n", src)), result.Output...)
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return nil, err
		}
		newArgs[inx] = dest
		s.logger.Info("compile source replaced",
			zap.String("package", opt.Package),
			zap.String("source", src),
			zap.String("dest", dest))
	}
	return newArgs, nil
}

// exitWith passes the tool's own exit status on to the go command.
func exitWith(err error) error {
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	return err
}
