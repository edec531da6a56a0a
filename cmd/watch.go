package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchFlags struct {
	outDir   string
	debounce time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Keep an instrumented copy of a source tree up to date",
	Long: `Instrument every .go file below dir into the output directory, then watch the tree
and re-instrument files as they change. A file that fails to instrument is logged and
its previous output is kept.

Example:
  profiling-instrument watch . -o /tmp/instrumented --backend pprof --facade example.com/lib/profiling`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.outDir, "out", "o", "", "directory receiving the instrumented tree")
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 100*time.Millisecond, "quiet period before changed files are processed")
	_ = watchCmd.MarkFlagRequired("out")
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
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

	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	out, err := filepath.Abs(watchFlags.outDir)
	if err != nil {
		return err
	}
	if out == root || strings.HasPrefix(out, root+string(filepath.Separator)) {
		return errors.Errorf("output directory %s is inside the watched tree", out)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &treeWatcher{session: s, root: root, out: out, debounce: watchFlags.debounce}
	return w.run(ctx)
}

// treeWatcher mirrors root into out through the instrumenter. All work happens on the
// goroutine calling run.
type treeWatcher struct {
	session  *session
	root     string
	out      string
	debounce time.Duration
}

func (w *treeWatcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer watcher.Close()

	var initial []string
	err = filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		if isSource(path) {
			initial = append(initial, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "watch tree")
	}
	for _, path := range initial {
		w.process(path)
	}
	w.session.logger.Info("watching", zap.String("dir", w.root), zap.Int("files", len(initial)))

	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			w.session.logger.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
					if err := watcher.Add(event.Name); err != nil {
						w.session.logger.Warn("cannot watch directory", zap.String("dir", event.Name), zap.Error(err))
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isSource(event.Name) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			for path := range pending {
				w.process(path)
			}
			clear(pending)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.session.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *treeWatcher) process(path string) {
	logger := w.session.logger.With(zap.String("file", path))
	src, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("cannot read source", zap.Error(err))
		return
	}
	result, err := w.session.instrumenter.Source(path, src)
	if err != nil {
		logger.Error("instrumentation failed", zap.Error(err))
		return
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		logger.Error("source outside watched tree", zap.Error(err))
		return
	}
	dest := filepath.Join(w.out, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		logger.Error("cannot create output directory", zap.Error(err))
		return
	}
	if err := os.WriteFile(dest, result.Output, 0o644); err != nil {
		logger.Error("cannot write output", zap.Error(err))
		return
	}
	logger.Debug("file mirrored", zap.String("dest", dest), zap.Bool("changed", result.Changed))
}

func isSource(path string) bool {
	return strings.HasSuffix(path, ".go") && !strings.HasPrefix(filepath.Base(path), ".")
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "testdata" || name == "vendor"
}
