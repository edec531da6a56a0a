package probe

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"testing"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
)

// render prints stmts as they would appear in a function body, one entry per statement.
func render(t *testing.T, stmts []dst.Stmt) []string {
	t.Helper()
	file := &dst.File{
		Name: dst.NewIdent("p"),
		Decls: []dst.Decl{&dst.FuncDecl{
			Name: dst.NewIdent("f"),
			Type: &dst.FuncType{Params: &dst.FieldList{}},
			Body: &dst.BlockStmt{List: stmts},
		}},
	}
	var buf bytes.Buffer
	if err := decorator.Fprint(&buf, file); err != nil {
		t.Fatalf("print: %v", err)
	}
	fset := token.NewFileSet()
	af, err := parser.ParseFile(fset, "p.go", buf.Bytes(), 0)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, buf.String())
	}
	var out []string
	for _, stmt := range af.Decls[0].(*ast.FuncDecl).Body.List {
		var sb bytes.Buffer
		if err := format.Node(&sb, fset, stmt); err != nil {
			t.Fatal(err)
		}
		out = append(out, sb.String())
	}
	return out
}

func TestStrategies(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want []string
	}{
		{
			name: "pass-through",
			kind: KindNone,
			want: nil,
		},
		{
			name: "scope marker",
			kind: KindTracy,
			want: []string{"defer profiling.FunctionScope()()"},
		},
		{
			name: "other scope marker backends emit the same marker",
			kind: KindPprof,
			want: []string{"defer profiling.FunctionScope()()"},
		},
		{
			name: "span",
			kind: KindTracing,
			want: []string{
				`_fnSpan := profiling.Span(profiling.LevelInfo, "Widget: b")`,
				"defer _fnSpan.Enter().Exit()",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := New(tt.kind, "example.com/profiling")
			if err != nil {
				t.Fatal(err)
			}
			if strategy.Kind() != tt.kind {
				t.Fatalf("kind %s, want %s", strategy.Kind(), tt.kind)
			}
			got := render(t, strategy.Emit(Probe{Qualifier: "profiling", Label: "Widget: b", Guard: "_fnSpan"}))
			if len(got) != len(tt.want) {
				t.Fatalf("got %d statements %q, want %q", len(got), got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("statement %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSpanLabelIsQuoted(t *testing.T) {
	strategy, err := New(KindTracing, "example.com/profiling")
	if err != nil {
		t.Fatal(err)
	}
	got := render(t, strategy.Emit(Probe{Qualifier: "prof", Label: `List[T]: "odd"`, Guard: "_fnSpan1"}))
	want := `_fnSpan1 := prof.Span(prof.LevelInfo, "List[T]: \"odd\"")`
	if got[0] != want {
		t.Fatalf("got %q, want %q", got[0], want)
	}
}

func TestPassThroughHasNoFacade(t *testing.T) {
	strategy, err := New(KindNone, "example.com/profiling")
	if err != nil {
		t.Fatal(err)
	}
	if strategy.Facade() != "" {
		t.Fatalf("pass-through facade %q, want empty", strategy.Facade())
	}
}

func TestNewNeedsFacade(t *testing.T) {
	if _, err := New(KindTracing, ""); err == nil {
		t.Fatal("expected an error for a backend without facade")
	}
	if _, err := New(Kind(42), "example.com/profiling"); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestKindSet(t *testing.T) {
	var k Kind
	if err := k.Set("tracing"); err != nil {
		t.Fatal(err)
	}
	if k != KindTracing || k.ScopeMarker() {
		t.Fatalf("got %s, want the span backend", k)
	}
	if err := k.Set("superluminal"); err != nil || !k.ScopeMarker() {
		t.Fatalf("superluminal: %v, scope marker %v", err, k.ScopeMarker())
	}
	if err := k.Set("puffin"); err == nil {
		t.Fatal("expected an error for an unknown backend name")
	}
}
