package instrument

import (
	"strings"

	"github.com/dave/dst"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mrproliu/go-profiling-instrumentation/stats"
)

// ErrUnexpectedArguments is returned when the whole-file directive is given arguments.
var ErrUnexpectedArguments = errors.New("directive does not take any arguments")

// Driver names the entry point that reached a declaration.
type Driver string

const (
	DriverEverything   Driver = DirectiveEverything
	DriverFunction     Driver = DirectiveFunction
	DriverAllFunctions Driver = DirectiveAllFunctions
	DriverSkip         Driver = DirectiveSkip
)

// Decision records how one declaration was handled.
type Decision struct {
	Label   string
	Driver  Driver
	Outcome Outcome
	Line    int
}

// Pass applies classification, labeling and rewriting to one file. A declaration is
// decided at most once per pass, whichever driver reaches it first, so no body is
// ever wrapped twice.
type Pass struct {
	classifier *Classifier
	rewriter   *Rewriter
	logger     *zap.Logger
	metrics    *stats.Collector
	line       func(dst.Node) int

	decided   map[*dst.FuncDecl]bool
	decisions []Decision
	changed   bool
}

func NewPass(classifier *Classifier, rewriter *Rewriter, logger *zap.Logger, metrics *stats.Collector) *Pass {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pass{
		classifier: classifier,
		rewriter:   rewriter,
		logger:     logger,
		metrics:    metrics,
		line:       func(dst.Node) int { return 0 },
		decided:    make(map[*dst.FuncDecl]bool),
	}
}

// Everything instruments every function and method declared at the top level of file.
func (p *Pass) Everything(file *dst.File, args string) error {
	if err := p.everythingArgs(args); err != nil {
		return err
	}
	for _, decl := range file.Decls {
		fd, ok := decl.(*dst.FuncDecl)
		if !ok {
			continue
		}
		if fd.Recv == nil {
			p.apply(DriverEverything, fd, "")
		} else {
			p.method(DriverEverything, fd)
		}
	}
	return nil
}

func (p *Pass) everythingArgs(args string) error {
	if strings.TrimSpace(args) != "" {
		return errors.Wrapf(ErrUnexpectedArguments, "//%s:%s got %q", p.classifier.Namespace, DirectiveEverything, args)
	}
	return nil
}

// Function instruments a single declaration, labeled with its bare name even when it
// is a method.
func (p *Pass) Function(fd *dst.FuncDecl) *dst.FuncDecl {
	p.apply(DriverFunction, fd, "")
	return fd
}

// AllFunctions instruments the methods of owner found in decls. Everything else in the
// list is left alone.
func (p *Pass) AllFunctions(decls []dst.Decl, owner string) {
	for _, decl := range decls {
		fd, ok := decl.(*dst.FuncDecl)
		if !ok || fd.Recv == nil {
			continue
		}
		if ReceiverBase(fd.Recv) != owner {
			continue
		}
		p.method(DriverAllFunctions, fd)
	}
}

// Skip is the identity driver.
func Skip(fd *dst.FuncDecl) *dst.FuncDecl {
	return fd
}

func (p *Pass) skip(fd *dst.FuncDecl) {
	if p.decided[fd] {
		return
	}
	p.decided[fd] = true
	p.record(DriverSkip, BuildLabel(NewDeclaration(Skip(fd)), ""), OutcomeExcluded, fd)
}

// method is shared by the whole-file and method-group drivers.
func (p *Pass) method(driver Driver, fd *dst.FuncDecl) {
	p.apply(driver, fd, OwnerName(fd.Recv))
}

func (p *Pass) apply(driver Driver, fd *dst.FuncDecl, owner string) {
	if p.decided[fd] {
		return
	}
	p.decided[fd] = true

	d := NewDeclaration(fd)
	label := BuildLabel(d, owner)
	outcome := p.classifier.Classify(d)
	if outcome == OutcomeInstrumented && p.rewriter.Rewrite(fd, label) {
		p.changed = true
	}
	p.record(driver, label, outcome, fd)
}

func (p *Pass) record(driver Driver, label string, outcome Outcome, fd *dst.FuncDecl) {
	decision := Decision{Label: label, Driver: driver, Outcome: outcome, Line: p.line(fd)}
	p.decisions = append(p.decisions, decision)
	p.metrics.ObserveDeclaration(string(driver), string(outcome))
	p.logger.Debug("declaration decided",
		zap.String("label", label),
		zap.String("driver", string(driver)),
		zap.String("outcome", string(outcome)),
		zap.Int("line", decision.Line))
}

// Decisions returns the declarations decided so far, in order.
func (p *Pass) Decisions() []Decision {
	return p.decisions
}

// Changed reports whether any body received probe statements.
func (p *Pass) Changed() bool {
	return p.changed
}
