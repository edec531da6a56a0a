package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrproliu/go-profiling-instrumentation/config"
	"github.com/mrproliu/go-profiling-instrumentation/instrument"
	"github.com/mrproliu/go-profiling-instrumentation/probe"
	"github.com/mrproliu/go-profiling-instrumentation/stats"
)

var (
	// Global flags
	cfgFile  string
	verbose  bool
	backend  probe.Kind
	facade   string
	everyFn  bool
	textfile string
)

var rootCmd = &cobra.Command{
	Use:   "profiling-instrument",
	Short: "Inject profiling probes into Go function bodies",
	Long: `profiling-instrument rewrites Go source files so that selected function bodies
start with a call into a profiling facade package.

Declarations are selected with directive comments:
  //profiling:everything      before the package clause, every function of the file
  //profiling:function        on one function
  //profiling:all_functions   on a type, every method of that type
  //profiling:skip            on a function, never instrumented`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default $"+config.EnvConfig+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Var(&backend, "backend", "profiling backend: none, pprof, fgprof, tracy, superluminal, tracing")
	rootCmd.PersistentFlags().StringVar(&facade, "facade", "", "import path of the profiling facade package")
	rootCmd.PersistentFlags().BoolVar(&everyFn, "all", false, "instrument every function, as if each file had the everything directive")
	rootCmd.PersistentFlags().StringVar(&textfile, "metrics-textfile", "", "write run metrics to this file in the Prometheus text format")
}

// settings loads the configuration and lets explicitly set flags win over it.
func settings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("facade") {
		cfg.Facade = facade
	}
	if flags.Changed("all") {
		cfg.Everything = everyFn
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = textfile
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}
	return cfg, nil
}

// session bundles what every subcommand needs for one run.
type session struct {
	cfg          *config.Config
	logger       *zap.Logger
	metrics      *stats.Collector
	instrumenter *instrument.Instrumenter
}

func newSession(cfg *config.Config, logger *zap.Logger) (*session, error) {
	strategy, err := probe.New(cfg.Backend, cfg.Facade)
	if err != nil {
		return nil, err
	}
	metrics := stats.NewCollector(nil)
	return &session{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		instrumenter: instrument.New(strategy, instrument.Options{
			Namespace:  cfg.Namespace,
			Everything: cfg.Everything,
			Logger:     logger,
			Metrics:    metrics,
		}),
	}, nil
}

// close flushes the logger and writes the metrics textfile when one is configured.
func (s *session) close() error {
	_ = s.logger.Sync()
	if s.cfg.Metrics.Textfile == "" {
		return nil
	}
	return errors.Wrap(s.metrics.WriteTextfile(s.cfg.Metrics.Textfile), "write metrics")
}
