package instrument

import (
	"go/token"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/dave/dst"
	"github.com/pkg/errors"
)

// ErrImportConflict is returned when the facade's qualifier is already taken in a file.
var ErrImportConflict = errors.New("facade qualifier already in use")

// facadeImport resolves the name the probe statements use for the facade package
// and adds the import once something was rewritten.
type facadeImport struct {
	path      string
	qualifier string
	present   bool
	conflict  error
}

func newFacadeImport(file *dst.File, importPath string) *facadeImport {
	f := &facadeImport{path: importPath}
	if importPath == "" {
		return f
	}
	f.qualifier = packageName(importPath)
	for _, spec := range importSpecs(file) {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil || p != importPath {
			continue
		}
		if spec.Name == nil {
			f.present = true
			break
		}
		if spec.Name.Name != "_" && spec.Name.Name != "." {
			f.qualifier = spec.Name.Name
			f.present = true
			break
		}
	}
	if f.present {
		return f
	}
	for _, spec := range importSpecs(file) {
		p, _ := strconv.Unquote(spec.Path.Value)
		name := packageName(p)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == f.qualifier {
			f.conflict = errors.Wrapf(ErrImportConflict, "%q is imported as %s", p, name)
			return f
		}
	}
	if topLevelNames(file)[f.qualifier] {
		f.conflict = errors.Wrapf(ErrImportConflict, "%s is declared in the file", f.qualifier)
	}
	return f
}

// ensure adds the import. The alias is always spelled out, so the probes resolve even
// when the facade's package clause differs from its last path element. A cgo import
// keeps its own declaration: cgo reads the preamble only from a lone import "C".
func (f *facadeImport) ensure(file *dst.File) error {
	if f.path == "" || f.present {
		return nil
	}
	if f.conflict != nil {
		return f.conflict
	}
	spec := &dst.ImportSpec{
		Name: dst.NewIdent(f.qualifier),
		Path: &dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(f.path)},
	}
	file.Imports = append(file.Imports, spec)
	f.present = true

	insertAt := 0
	for i, decl := range file.Decls {
		gd, ok := decl.(*dst.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}
		if importsC(gd) {
			insertAt = i + 1
			continue
		}
		if !gd.Lparen {
			gd.Lparen, gd.Rparen = true, true
			for _, existing := range gd.Specs {
				existing.Decorations().Before = dst.NewLine
				existing.Decorations().After = dst.NewLine
			}
		}
		spec.Decs.Before = dst.NewLine
		spec.Decs.After = dst.NewLine
		gd.Specs = append(gd.Specs, spec)
		return nil
	}
	gd := &dst.GenDecl{Tok: token.IMPORT, Specs: []dst.Spec{spec}}
	gd.Decs.Before = dst.EmptyLine
	gd.Decs.After = dst.EmptyLine
	file.Decls = slices.Insert(file.Decls, insertAt, dst.Decl(gd))
	return nil
}

func importsC(gd *dst.GenDecl) bool {
	for _, spec := range gd.Specs {
		if is, ok := spec.(*dst.ImportSpec); ok && is.Path.Value == `"C"` {
			return true
		}
	}
	return false
}

// packageName guesses the package name from the import path's last element,
// dropping a major version suffix.
func packageName(importPath string) string {
	name := path.Base(importPath)
	if len(name) > 1 && name[0] == 'v' && strings.Trim(name[1:], "0123456789") == "" {
		name = path.Base(path.Dir(importPath))
	}
	name = strings.TrimPrefix(name, "go-")
	if i := strings.IndexAny(name, ".-"); i > 0 {
		name = name[:i]
	}
	return name
}

func importSpecs(file *dst.File) []*dst.ImportSpec {
	var specs []*dst.ImportSpec
	for _, decl := range file.Decls {
		gd, ok := decl.(*dst.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}
		for _, spec := range gd.Specs {
			if is, ok := spec.(*dst.ImportSpec); ok {
				specs = append(specs, is)
			}
		}
	}
	return specs
}

func topLevelNames(file *dst.File) map[string]bool {
	names := map[string]bool{}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *dst.FuncDecl:
			if d.Recv == nil {
				names[d.Name.Name] = true
			}
		case *dst.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *dst.TypeSpec:
					names[s.Name.Name] = true
				case *dst.ValueSpec:
					for _, name := range s.Names {
						names[name.Name] = true
					}
				}
			}
		}
	}
	return names
}
