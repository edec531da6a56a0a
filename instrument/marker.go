package instrument

import (
	"strings"
	"unicode"

	"github.com/dave/dst"
)

// Directive names understood in the configured namespace.
const (
	DirectiveEverything   = "everything"
	DirectiveFunction     = "function"
	DirectiveAllFunctions = "all_functions"
	DirectiveSkip         = "skip"
)

// Marker is a directive comment attached to a declaration, such as
//
//	//profiling:skip
//	//github.com/acme/profiling:function
//	//go:nosplit
//
// Path holds the directive word split on '/' and ':'; Args is whatever follows it.
type Marker struct {
	Path []string
	Args string
}

// ParseMarker parses a single comment. Like compiler directives, a marker has no
// space after the slashes and at least one ':'.
func ParseMarker(comment string) (Marker, bool) {
	text, ok := strings.CutPrefix(comment, "//")
	if !ok || text == "" || unicode.IsSpace(rune(text[0])) {
		return Marker{}, false
	}
	word, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		word, args = text[:i], strings.TrimSpace(text[i:])
	}
	colon := strings.LastIndex(word, ":")
	if colon <= 0 || colon == len(word)-1 {
		return Marker{}, false
	}
	name := word[colon+1:]
	if strings.ContainsAny(name, "/:") {
		return Marker{}, false
	}
	path := append(strings.Split(word[:colon], "/"), name)
	for _, segment := range path {
		if segment == "" {
			return Marker{}, false
		}
	}
	return Marker{Path: path, Args: args}, true
}

// Name is the last path segment, the identity of the marker.
func (m Marker) Name() string {
	return m.Path[len(m.Path)-1]
}

// Namespace is the segment right before the name: "profiling" for both
// "profiling:skip" and "github.com/acme/profiling:skip".
func (m Marker) Namespace() string {
	return m.Path[len(m.Path)-2]
}

func (m Marker) String() string {
	word := strings.Join(m.Path[:len(m.Path)-1], "/") + ":" + m.Name()
	if m.Args == "" {
		return "//" + word
	}
	return "//" + word + " " + m.Args
}

func markers(decs dst.Decorations) []Marker {
	var result []Marker
	for _, comment := range decs {
		if m, ok := ParseMarker(comment); ok {
			result = append(result, m)
		}
	}
	return result
}
