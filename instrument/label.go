package instrument

import (
	"strings"

	"github.com/dave/dst"
)

// BuildLabel returns the probe label: the bare name, or "<owner>: <name>" for methods.
func BuildLabel(d *Declaration, owner string) string {
	if owner == "" {
		return d.Name
	}
	return owner + ": " + d.Name
}

// OwnerName renders the receiver type as written in the source, without the pointer:
// "*List[K, V]" gives "List[K, V]".
func OwnerName(recv *dst.FieldList) string {
	expr := receiverType(recv)
	if expr == nil {
		return ""
	}
	return typeText(unwrapPointer(expr))
}

// ReceiverBase is the bare type name a method belongs to: "List" for "*List[K, V]".
func ReceiverBase(recv *dst.FieldList) string {
	expr := unwrapPointer(receiverType(recv))
	switch t := expr.(type) {
	case *dst.IndexExpr:
		expr = t.X
	case *dst.IndexListExpr:
		expr = t.X
	}
	if ident, ok := expr.(*dst.Ident); ok {
		return ident.Name
	}
	return ""
}

func receiverType(recv *dst.FieldList) dst.Expr {
	if recv == nil || len(recv.List) == 0 {
		return nil
	}
	return recv.List[0].Type
}

func unwrapPointer(expr dst.Expr) dst.Expr {
	for {
		switch t := expr.(type) {
		case *dst.ParenExpr:
			expr = t.X
		case *dst.StarExpr:
			expr = t.X
		default:
			return expr
		}
	}
}

func typeText(expr dst.Expr) string {
	switch t := expr.(type) {
	case *dst.Ident:
		return t.Name
	case *dst.StarExpr:
		return "*" + typeText(t.X)
	case *dst.ParenExpr:
		return "(" + typeText(t.X) + ")"
	case *dst.SelectorExpr:
		return typeText(t.X) + "." + t.Sel.Name
	case *dst.IndexExpr:
		return typeText(t.X) + "[" + typeText(t.Index) + "]"
	case *dst.IndexListExpr:
		indices := make([]string, 0, len(t.Indices))
		for _, index := range t.Indices {
			indices = append(indices, typeText(index))
		}
		return typeText(t.X) + "[" + strings.Join(indices, ", ") + "]"
	}
	return ""
}
