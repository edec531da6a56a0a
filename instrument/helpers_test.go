package instrument

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

func parseDst(t *testing.T, src string) *dst.File {
	t.Helper()
	file, err := decorator.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return file
}

// funcDecl finds a declaration by "Name" or "Recv.Name".
func funcDecl(t *testing.T, file *dst.File, key string) *dst.FuncDecl {
	t.Helper()
	for _, decl := range file.Decls {
		if fd, ok := decl.(*dst.FuncDecl); ok && dstKey(fd) == key {
			return fd
		}
	}
	t.Fatalf("no declaration %s", key)
	return nil
}

func dstKey(fd *dst.FuncDecl) string {
	if fd.Recv == nil {
		return fd.Name.Name
	}
	return ReceiverBase(fd.Recv) + "." + fd.Name.Name
}

// funcShape is a declaration reduced to what the rewrite may and may not touch.
type funcShape struct {
	Doc       []string
	Signature string
	Body      []string
}

// shapes reparses src with go/parser and renders every top-level function, one entry
// per body statement, so comparisons do not depend on blank lines. Doc comments are
// kept line by line, directives included.
func shapes(t *testing.T, src []byte) (imports []string, funcs map[string]funcShape) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "shape.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, src)
	}
	for _, spec := range file.Imports {
		name := ""
		if spec.Name != nil {
			name = spec.Name.Name + " "
		}
		imports = append(imports, name+spec.Path.Value)
	}
	funcs = map[string]funcShape{}
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		key := fd.Name.Name
		if fd.Recv != nil {
			key = astReceiverBase(fd.Recv.List[0].Type) + "." + key
		}
		var shape funcShape
		if fd.Doc != nil {
			for _, c := range fd.Doc.List {
				shape.Doc = append(shape.Doc, c.Text)
			}
		}
		if fd.Body != nil {
			for _, stmt := range fd.Body.List {
				shape.Body = append(shape.Body, node(t, fset, stmt))
			}
		}
		body := fd.Body
		fd.Body = nil
		shape.Signature = node(t, fset, fd)
		fd.Body = body
		funcs[key] = shape
	}
	return imports, funcs
}

// comments lists every comment of src in order.
func comments(t *testing.T, src []byte) []string {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "comments.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, src)
	}
	var list []string
	for _, group := range file.Comments {
		for _, c := range group.List {
			list = append(list, c.Text)
		}
	}
	return list
}

func astReceiverBase(expr ast.Expr) string {
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.ParenExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}

func node(t *testing.T, fset *token.FileSet, n any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, n); err != nil {
		t.Fatalf("format: %v", err)
	}
	return buf.String()
}
