package instrument

import (
	"testing"
)

const classifySrc = `package p

import "unsafe"

var _ unsafe.Pointer

func plain() {}

//profiling:skip
func short() {}

// fully qualified spelling of the same marker
//
//github.com/acme/profiling:skip
func qualified() {}

//ctxweaver:skip
func foreign() {}

//go:nosplit
func nosplit() {}

//go:nosplit
//profiling:skip
func both() {}

//go:linkname external runtime.nanotime
func external() int64

//go:noinline
func noinline() {}

//profiling:function
//profiling:skip
func contradicting() {}
`

func TestClassify(t *testing.T) {
	file := parseDst(t, classifySrc)
	classifier := NewClassifier("")
	tests := []struct {
		name string
		want Outcome
	}{
		{"plain", OutcomeInstrumented},
		{"short", OutcomeExcluded},
		{"qualified", OutcomeExcluded},
		{"foreign", OutcomeInstrumented},
		{"nosplit", OutcomeConst},
		{"both", OutcomeConst},
		{"external", OutcomeConst},
		{"noinline", OutcomeInstrumented},
		{"contradicting", OutcomeExcluded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeclaration(funcDecl(t, file, tt.name))
			if got := classifier.Classify(d); got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.name, got, tt.want)
			}
			if got := classifier.IsEligible(d); got != (tt.want == OutcomeInstrumented) {
				t.Errorf("IsEligible(%s) = %v", tt.name, got)
			}
		})
	}
}

func TestClassifierNamespace(t *testing.T) {
	file := parseDst(t, classifySrc)
	classifier := NewClassifier("ctxweaver")
	if classifier.IsEligible(NewDeclaration(funcDecl(t, file, "foreign"))) {
		t.Error("foreign should be excluded in the ctxweaver namespace")
	}
	if !classifier.IsEligible(NewDeclaration(funcDecl(t, file, "short"))) {
		t.Error("short should be eligible in the ctxweaver namespace")
	}
}

func TestMarkerOrderDoesNotMatter(t *testing.T) {
	file := parseDst(t, `package p

//profiling:skip
//profiling:function
func a() {}

//profiling:function
//profiling:skip
func b() {}
`)
	classifier := NewClassifier("")
	for _, name := range []string{"a", "b"} {
		if classifier.IsEligible(NewDeclaration(funcDecl(t, file, name))) {
			t.Errorf("%s should be excluded", name)
		}
	}
}
