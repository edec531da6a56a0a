package instrument

import (
	"github.com/dave/dst"
)

// DefaultNamespace is the namespace of the instrumentation directives.
const DefaultNamespace = "profiling"

// compiler directives under which a deferred call in the prologue is not allowed
var restrictedDirectives = map[string]bool{
	"nosplit":           true,
	"systemstack":       true,
	"nowritebarrier":    true,
	"nowritebarrierrec": true,
}

// Declaration is the classifier's view of a function declaration.
type Declaration struct {
	Name string
	// Const marks declarations that cannot carry a runtime probe: no body, or a
	// compiler directive that rules out a deferred call.
	Const   bool
	Markers []Marker
	Func    *dst.FuncDecl
}

func NewDeclaration(fd *dst.FuncDecl) *Declaration {
	d := &Declaration{
		Name:    fd.Name.Name,
		Markers: markers(fd.Decs.Start),
		Func:    fd,
	}
	d.Const = fd.Body == nil
	for _, m := range d.Markers {
		if m.Namespace() == "go" && restrictedDirectives[m.Name()] {
			d.Const = true
		}
	}
	return d
}

// Outcome is what happened to a declaration during a pass.
type Outcome string

const (
	OutcomeInstrumented Outcome = "instrumented"
	OutcomeExcluded     Outcome = "excluded"
	OutcomeConst        Outcome = "const"
)

// Classifier decides which declarations get a probe. Every driver goes through the
// same Classifier so they cannot disagree on a declaration.
type Classifier struct {
	Namespace string
}

func NewClassifier(namespace string) *Classifier {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Classifier{Namespace: namespace}
}

func (c *Classifier) IsEligible(d *Declaration) bool {
	return c.Classify(d) == OutcomeInstrumented
}

// Classify returns OutcomeConst before looking at markers at all.
func (c *Classifier) Classify(d *Declaration) Outcome {
	if d.Const {
		return OutcomeConst
	}
	for _, m := range d.Markers {
		if c.IsExclusion(m) {
			return OutcomeExcluded
		}
	}
	return OutcomeInstrumented
}

func (c *Classifier) IsExclusion(m Marker) bool {
	return m.Name() == DirectiveSkip && m.Namespace() == c.Namespace
}

// Directive returns the first marker in the classifier's namespace called name.
func (c *Classifier) Directive(ms []Marker, name string) (Marker, bool) {
	for _, m := range ms {
		if m.Name() == name && m.Namespace() == c.Namespace {
			return m, true
		}
	}
	return Marker{}, false
}
