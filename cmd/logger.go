package main

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrproliu/go-profiling-instrumentation/config"
)

// newLogger logs to stderr, in development format when verbose, and also to the
// configured log file.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if verbose {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Log.File != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.Log.File)
	}
	l, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "cannot create logger")
	}
	return l, nil
}

// newFileLogger writes only to the configured file: a toolexec wrapper shares stdout
// and stderr with the go command, which reads the tool's version line from stdout.
func newFileLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.File == "" {
		return zap.NewNop(), nil
	}
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{cfg.Log.File}
	zc.ErrorOutputPaths = []string{cfg.Log.File}
	l, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "cannot create logger")
	}
	return l, nil
}
