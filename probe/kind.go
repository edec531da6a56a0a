package probe

import (
	"encoding"
	"fmt"
)

// Kind names the profiling backend the injected probes call into.
type Kind int

const (
	KindNone Kind = iota
	KindPprof
	KindFgprof
	KindTracy
	KindSuperluminal
	KindTracing
)

var kindNames = map[Kind]string{
	KindNone:         "none",
	KindPprof:        "pprof",
	KindFgprof:       "fgprof",
	KindTracy:        "tracy",
	KindSuperluminal: "superluminal",
	KindTracing:      "tracing",
}

// Kinds returns every known backend kind.
func Kinds() []Kind {
	return []Kind{KindNone, KindPprof, KindFgprof, KindTracy, KindSuperluminal, KindTracing}
}

// ScopeMarker reports whether the backend is driven by a zero-argument scope marker.
func (k Kind) ScopeMarker() bool {
	switch k {
	case KindPprof, KindFgprof, KindTracy, KindSuperluminal:
		return true
	}
	return false
}

func (k Kind) String() string {
	v, err := k.MarshalText()
	if err != nil {
		return fmt.Sprintf("kind-invalid(%d)", int(k))
	}
	return string(v)
}

var _ encoding.TextUnmarshaler = (*Kind)(nil)
var _ encoding.TextMarshaler = Kind(0)

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown backend %q", b)
}

func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid Kind(%d)", int(k))
	}
	return []byte(name), nil
}

// Set and Type let a Kind be used as a command line flag value.
func (k *Kind) Set(s string) error {
	return k.UnmarshalText([]byte(s))
}

func (k *Kind) Type() string {
	return "backend"
}
