package probe

import (
	"fmt"
	"go/parser"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
)

// ParseStmts parses a snippet of Go statements into fresh dst nodes that can be
// spliced into any function body.
func ParseStmts(goString string) []dst.Stmt {
	data := fmt.Sprintf(`
package main
func main() {
%s
}`, goString)
	parsed, err := decorator.ParseFile(nil, "builder.go", data, parser.ParseComments)
	if err != nil {
		panic(fmt.Sprintf("parsing go failure: %v\n%s", err, goString))
	}

	return parsed.Decls[0].(*dst.FuncDecl).Body.List
}
