// Package instrument rewrites Go source so that function bodies start with a profiling probe.
//
// Which declarations are touched is driven by directive comments in the configured
// namespace (profiling by default):
//
//	//profiling:everything      before the package clause: every function and method of the file
//	//profiling:function        on a function: that function only
//	//profiling:all_functions   on a type: every method of that type in the file
//	//profiling:skip            on a function: never instrumented
package instrument

import (
	"bytes"
	"go/format"
	"go/parser"
	"go/token"
	"io"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mrproliu/go-profiling-instrumentation/probe"
	"github.com/mrproliu/go-profiling-instrumentation/stats"
)

// Options tune an Instrumenter beyond its strategy.
type Options struct {
	// Namespace of the directives, DefaultNamespace when empty.
	Namespace string
	// Everything runs the whole-file driver on every file, with or without directive.
	Everything bool
	Logger     *zap.Logger
	Metrics    *stats.Collector
}

// Instrumenter rewrites source files with one strategy fixed for its whole lifetime.
type Instrumenter struct {
	strategy probe.Strategy
	opts     Options
	logger   *zap.Logger
}

func New(strategy probe.Strategy, opts Options) *Instrumenter {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumenter{strategy: strategy, opts: opts, logger: logger}
}

// Result is the outcome of rewriting one file. Output is the input itself when
// nothing changed.
type Result struct {
	Output    []byte
	Changed   bool
	Decisions []Decision
}

// Source rewrites one file. Any error aborts the file: no partial output is returned.
func (in *Instrumenter) Source(filename string, src []byte) (*Result, error) {
	result, err := in.source(filename, src)
	if err != nil {
		in.opts.Metrics.ObserveFile("failed")
		return nil, err
	}
	if result.Changed {
		in.opts.Metrics.ObserveFile("rewritten")
	} else {
		in.opts.Metrics.ObserveFile("unchanged")
	}
	return result, nil
}

func (in *Instrumenter) source(filename string, src []byte) (*Result, error) {
	fset := token.NewFileSet()
	dec := decorator.NewDecorator(fset)
	file, err := dec.ParseFile(filename, src, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filename)
	}

	facade := newFacadeImport(file, in.strategy.Facade())
	classifier := NewClassifier(in.opts.Namespace)
	pass := NewPass(classifier, NewRewriter(in.strategy, facade.qualifier), in.logger, in.opts.Metrics)
	pass.line = func(n dst.Node) int {
		if an, ok := dec.Ast.Nodes[n]; ok {
			return fset.Position(an.Pos()).Line
		}
		return 0
	}

	if err := in.dispatch(pass, classifier, file); err != nil {
		return nil, errors.Wrap(err, filename)
	}

	result := &Result{Output: src, Decisions: pass.Decisions()}
	if !pass.Changed() {
		return result, nil
	}
	if err := facade.ensure(file); err != nil {
		return nil, errors.Wrap(err, filename)
	}
	var buffer bytes.Buffer
	if err := writeFile(file, &buffer); err != nil {
		return nil, errors.Wrapf(err, "print %s", filename)
	}
	result.Output = buffer.Bytes()
	result.Changed = true
	in.logger.Info("file instrumented",
		zap.String("file", filename),
		zap.Int("declarations", len(result.Decisions)))
	return result, nil
}

// dispatch routes declarations to drivers according to their directives. Skip markers
// are decided first, then single functions, then method groups, then the whole file.
// A malformed whole-file directive fails the file before any driver runs.
func (in *Instrumenter) dispatch(pass *Pass, classifier *Classifier, file *dst.File) error {
	everything, fileWide := classifier.Directive(markers(file.Decs.Start), DirectiveEverything)
	if fileWide {
		if err := pass.everythingArgs(everything.Args); err != nil {
			return err
		}
	}

	for _, decl := range file.Decls {
		fd, ok := decl.(*dst.FuncDecl)
		if !ok {
			continue
		}
		if _, ok := classifier.Directive(markers(fd.Decs.Start), DirectiveSkip); ok {
			pass.skip(fd)
		}
	}
	for _, decl := range file.Decls {
		fd, ok := decl.(*dst.FuncDecl)
		if !ok {
			continue
		}
		if m, ok := classifier.Directive(markers(fd.Decs.Start), DirectiveFunction); ok {
			if m.Args != "" {
				in.logger.Warn("directive arguments ignored", zap.String("directive", m.String()))
			}
			pass.Function(fd)
		}
	}
	for _, owner := range methodGroups(classifier, file) {
		pass.AllFunctions(file.Decls, owner)
	}

	if fileWide || in.opts.Everything {
		return pass.Everything(file, everything.Args)
	}
	return nil
}

// methodGroups lists the types carrying the all_functions directive, either on the
// type declaration or on one spec of a grouped declaration.
func methodGroups(classifier *Classifier, file *dst.File) []string {
	var owners []string
	for _, decl := range file.Decls {
		gd, ok := decl.(*dst.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		_, whole := classifier.Directive(markers(gd.Decs.Start), DirectiveAllFunctions)
		for _, spec := range gd.Specs {
			ts, ok := spec.(*dst.TypeSpec)
			if !ok {
				continue
			}
			if _, own := classifier.Directive(markers(ts.Decs.Start), DirectiveAllFunctions); whole || own {
				owners = append(owners, ts.Name.Name)
			}
		}
	}
	return owners
}

func writeFile(file *dst.File, w io.Writer) error {
	fset, af, err := decorator.RestoreFile(file)
	if err != nil {
		return err
	}
	return format.Node(w, fset, af)
}
