package instrument

import (
	"strconv"
	"strings"

	"github.com/dave/dst"

	"github.com/mrproliu/go-profiling-instrumentation/probe"
)

const guardName = "_fnSpan"

// Rewriter prepends the active strategy's probe to function bodies.
type Rewriter struct {
	strategy  probe.Strategy
	qualifier string
}

// NewRewriter uses qualifier as the local name of the strategy's facade package.
func NewRewriter(strategy probe.Strategy, qualifier string) *Rewriter {
	return &Rewriter{strategy: strategy, qualifier: qualifier}
}

// Rewrite puts the probe statements in front of the original ones, in the body's own
// block, and reports whether any statement was added. A guard declared by the probe is
// released by a deferred call, so it stays live until the function returns by any path.
func (r *Rewriter) Rewrite(fd *dst.FuncDecl, label string) bool {
	if fd.Body == nil {
		return false
	}
	stmts := r.strategy.Emit(probe.Probe{
		Qualifier: r.qualifier,
		Label:     label,
		Guard:     freeGuard(fd),
	})
	if len(stmts) == 0 {
		return false
	}
	fd.Body.List = append(stmts, fd.Body.List...)
	return true
}

// freeGuard picks a guard identifier the declaration does not mention yet. Receiver,
// parameters and named results share the body's outermost scope, so they count too.
func freeGuard(fd *dst.FuncDecl) string {
	used := map[string]bool{}
	dst.Inspect(fd, func(n dst.Node) bool {
		if ident, ok := n.(*dst.Ident); ok && strings.HasPrefix(ident.Name, guardName) {
			used[ident.Name] = true
		}
		return true
	})
	name := guardName
	for i := 1; used[name]; i++ {
		name = guardName + strconv.Itoa(i)
	}
	return name
}
