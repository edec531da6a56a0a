package probe

import (
	"bytes"
	"strconv"
	"text/template"

	"github.com/dave/dst"
	"github.com/pkg/errors"
)

// ErrUnknownBackend is returned by New for a kind it cannot build a strategy for.
var ErrUnknownBackend = errors.New("unknown profiling backend")

// Probe carries what a strategy needs to render the statements for one declaration.
type Probe struct {
	// Qualifier is the name the facade package is imported under in the rewritten file.
	Qualifier string
	// Label is the display name of the probe, used verbatim.
	Label string
	// Guard is a free identifier the strategy may declare in the function body.
	Guard string
}

// Strategy turns "inject a probe" into the statements prepended to a function body.
// Exactly one strategy is active for a whole rewrite invocation.
type Strategy interface {
	Kind() Kind
	// Facade is the import path of the package the emitted statements call into,
	// empty when the strategy emits nothing.
	Facade() string
	Emit(p Probe) []dst.Stmt
}

// New builds the strategy for kind. Every kind but KindNone needs a facade import path.
func New(kind Kind, facade string) (Strategy, error) {
	if kind == KindNone {
		return passThrough{}, nil
	}
	if facade == "" {
		return nil, errors.Errorf("backend %s needs a facade import path", kind)
	}
	switch {
	case kind.ScopeMarker():
		return &templateStrategy{kind: kind, facade: facade, tmpl: scopeMarkerTemplate}, nil
	case kind == KindTracing:
		return &templateStrategy{kind: kind, facade: facade, tmpl: spanTemplate}, nil
	}
	return nil, errors.Wrapf(ErrUnknownBackend, "kind %d", int(kind))
}

type passThrough struct{}

func (passThrough) Kind() Kind { return KindNone }

func (passThrough) Facade() string { return "" }

func (passThrough) Emit(Probe) []dst.Stmt { return nil }

var funcs = template.FuncMap{"quote": strconv.Quote}

var (
	// the backend takes the label from the call site
	scopeMarkerTemplate = template.Must(template.New("scope").Funcs(funcs).Parse(
		`defer {{.Qualifier}}.FunctionScope()()`))

	spanTemplate = template.Must(template.New("span").Funcs(funcs).Parse(
		`{{.Guard}} := {{.Qualifier}}.Span({{.Qualifier}}.LevelInfo, {{quote .Label}})
defer {{.Guard}}.Enter().Exit()`))
)

type templateStrategy struct {
	kind   Kind
	facade string
	tmpl   *template.Template
}

func (s *templateStrategy) Kind() Kind { return s.kind }

func (s *templateStrategy) Facade() string { return s.facade }

func (s *templateStrategy) Emit(p Probe) []dst.Stmt {
	var buffer bytes.Buffer
	if err := s.tmpl.Execute(&buffer, p); err != nil {
		panic(errors.Wrapf(err, "render %s probe", s.kind))
	}
	return ParseStmts(buffer.String())
}
