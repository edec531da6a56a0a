package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rewriteFlags struct {
	write  bool
	outDir string
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [files or packages]",
	Short: "Instrument source files",
	Long: `Instrument Go source files. Arguments ending in .go are files, anything else is a
package pattern resolved by the go command.

By default the result is printed to stdout. With -w the files are rewritten in place, with
-o the results are written under another directory. Either way nothing is written when any
file fails.

Examples:
  # print one instrumented file
  profiling-instrument rewrite --backend tracy --facade example.com/lib/profiling main.go

  # rewrite a module in place, every function
  profiling-instrument rewrite -w --all -c profiling.yaml ./...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRewrite,
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().BoolVarP(&rewriteFlags.write, "write", "w", false, "write results to the source files")
	rewriteCmd.Flags().StringVarP(&rewriteFlags.outDir, "out", "o", "", "write results under this directory")
}

func runRewrite(cmd *cobra.Command, args []string) (err error) {
	if rewriteFlags.write && rewriteFlags.outDir != "" {
		return errors.New("-w and -o are mutually exclusive")
	}
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()

	files, err := resolveSources(args)
	if err != nil {
		return err
	}
	results, err := instrumentAll(s, files)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		switch {
		case rewriteFlags.write:
			if !r.result.Changed {
				continue
			}
			if err := os.WriteFile(r.path, r.result.Output, r.mode); err != nil {
				return err
			}
		case rewriteFlags.outDir != "":
			dest := outputPath(rewriteFlags.outDir, r.path)
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(dest, r.result.Output, r.mode); err != nil {
				return err
			}
		default:
			if _, err := out.Write(r.result.Output); err != nil {
				return err
			}
			continue
		}
		logger.Debug("file written", zap.String("file", r.path))
	}
	return nil
}
