// profiling-instrument rewrites Go source so that function bodies open with a call into a
// profiling facade package.
//
// Usage:
//
//	# print the rewritten file
//	profiling-instrument rewrite --backend tracing --facade example.com/lib/profiling main.go
//
//	# rewrite a package tree in place
//	profiling-instrument rewrite -w -c profiling.yaml ./...
//
//	# show which declarations would be instrumented
//	profiling-instrument plan ./...
//
//	# instrument while compiling, sources stay untouched
//	PROFILING_CONFIG=profiling.yaml go build -toolexec "profiling-instrument toolexec" .
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// compileOptions are the flags of a `go tool compile` invocation this tool cares about.
type compileOptions struct {
	Package   string
	Output    string
	ImportCfg string
}

func (c *compileOptions) String() string {
	return fmt.Sprintf("-p: %s, -o: %s, -importcfg: %s", c.Package, c.Output, c.ImportCfg)
}

func main() {
	Execute()
}

// parseCompileOption reads the compile flags out of a toolexec argument list such as
// [/usr/lib/go/pkg/tool/linux_amd64/compile -o $WORK/b001/_pkg_.a -p main ... main.go].
// It returns nil for any tool other than compile.
func parseCompileOption(args []string) *compileOptions {
	if len(args) == 0 {
		return nil
	}

	cmd := filepath.Base(args[0])
	if ext := filepath.Ext(cmd); ext != "" {
		cmd = strings.TrimSuffix(cmd, ext)
	}
	if cmd != "compile" {
		return nil
	}

	opt := &compileOptions{}
	i := 1
	for i < len(args)-1 {
		if args[i] == "" || args[i][0] != '-' {
			i += 1
			continue
		}

		kv := strings.SplitN(args[i], "=", 2)
		var valRef *string
		switch kv[0] {
		case "-p":
			valRef = &opt.Package
		case "-o":
			valRef = &opt.Output
		case "-importcfg":
			valRef = &opt.ImportCfg
		default:
			if len(kv) == 2 {
				i += 1
			} else if args[i+1] == "" || (len(args[i+1]) > 1 && args[i+1][0] != '-') {
				i += 2
			} else {
				i += 1
			}
			continue
		}

		if len(kv) == 2 {
			*valRef = kv[1]
			i += 1
		} else {
			*valRef = args[i+1]
			i += 2
		}
	}

	return opt
}

// executeCommand runs the (possibly rewritten) tool invocation with our stdio.
func executeCommand(args []string) error {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
