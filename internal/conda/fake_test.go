package conda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bootconda/internal/paths"
	"bootconda/internal/runner"
)

// fakeConda emulates the installer and the slice of the conda CLI the client
// uses, keeping packages and channels in memory.
type fakeConda struct {
	layout paths.Layout

	mu         sync.Mutex
	installs   int
	calls      [][]string
	envs       [][]string
	packages   map[string]string
	channels   []string
	index      map[string][]string
	failUpdate map[string]bool
}

func newFakeConda(layout paths.Layout) *fakeConda {
	return &fakeConda{
		layout: layout,
		packages: map[string]string{
			"python": "3.8.5",
			"pip":    "20.2.4",
		},
		index: map[string][]string{
			"numpy":      {"1.19.2", "1.20.0"},
			"numpy-base": {"1.19.2"},
			"scipy":      {"1.5.2"},
		},
		failUpdate: map[string]bool{},
	}
}

func (f *fakeConda) Run(ctx context.Context, command string, args []string, opts runner.Options) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch command {
	case f.layout.Installer:
		f.installs++
		if err := os.MkdirAll(filepath.Dir(f.layout.Manager), 0o755); err != nil {
			return runner.Result{}, err
		}
		return runner.Result{}, os.WriteFile(f.layout.Manager, []byte("#!/bin/sh\n"), 0o755)
	case f.layout.Manager:
	default:
		return runner.Result{}, fmt.Errorf("unexpected command %s", command)
	}

	f.calls = append(f.calls, append([]string(nil), args...))
	f.envs = append(f.envs, opts.Env)

	var stdout, stderr strings.Builder
	code := f.dispatch(args, &stdout, &stderr)
	if opts.Stdout != nil {
		_, _ = io.WriteString(opts.Stdout, stdout.String())
	}
	if opts.Stderr != nil {
		_, _ = io.WriteString(opts.Stderr, stderr.String())
	}
	return runner.Result{Stdout: []byte(stdout.String()), Stderr: []byte(stderr.String()), ExitCode: code}, nil
}

func (f *fakeConda) dispatch(args []string, stdout, stderr *strings.Builder) int {
	joined := strings.Join(args, " ")
	switch {
	case len(args) == 3 && args[0] == "install":
		name := strings.FieldsFunc(args[2], func(r rune) bool { return strings.ContainsRune("=<>", r) })[0]
		f.packages[name] = "1.0"
		return 0
	case len(args) == 3 && args[0] == "remove":
		if _, ok := f.packages[args[2]]; !ok {
			stderr.WriteString("PackagesNotFoundError: " + args[2])
			return 1
		}
		delete(f.packages, args[2])
		return 0
	case len(args) == 3 && args[0] == "update":
		if f.failUpdate[args[2]] {
			stderr.WriteString("UnsatisfiableError: " + args[2])
			return 1
		}
		return 0
	case joined == "list --export":
		stdout.WriteString("# This file may be used to create an environment using:\n# platform: linux-64\n")
		for _, name := range f.sortedPackages() {
			fmt.Fprintf(stdout, "%s=%s=py_0\n", name, f.packages[name])
		}
		return 0
	case joined == "list --json":
		var full []string
		for _, name := range f.sortedPackages() {
			full = append(full, fmt.Sprintf("defaults::%s-%s-py_0", name, f.packages[name]))
		}
		writeJSON(stdout, full)
		return 0
	case joined == "list":
		stdout.WriteString("# packages in environment at " + f.layout.Prefix + ":\n")
		for _, name := range f.sortedPackages() {
			fmt.Fprintf(stdout, "%-20s %-10s py_0\n", name, f.packages[name])
		}
		return 0
	case len(args) == 3 && args[0] == "search" && args[2] == "--json":
		result := map[string][]map[string]string{}
		for name, versions := range f.index {
			if !strings.HasPrefix(name, args[1]) {
				continue
			}
			for _, v := range versions {
				result[name] = append(result[name], map[string]string{"version": v, "build": "py_0", "channel": "defaults"})
			}
		}
		if len(result) == 0 {
			writeJSON(stdout, map[string]string{
				"exception_name": "PackagesNotFoundError",
				"message":        "The following packages are not available from current channels",
			})
			return 1
		}
		writeJSON(stdout, result)
		return 0
	case joined == "config --get channels --json":
		get := map[string]any{}
		if len(f.channels) > 0 {
			get["channels"] = f.channels
		}
		writeJSON(stdout, map[string]any{"get": get, "success": true})
		return 0
	case len(args) == 5 && args[0] == "config" && args[1] == "--add":
		f.channels = append([]string{args[3]}, without(f.channels, args[3])...)
		return 0
	case len(args) == 5 && args[0] == "config" && args[1] == "--remove":
		if len(without(f.channels, args[3])) == len(f.channels) {
			stderr.WriteString("CondaKeyError: 'channels': '" + args[3] + "' is not in the 'channels' key of the config file")
			return 1
		}
		f.channels = without(f.channels, args[3])
		return 0
	}
	stderr.WriteString("unsupported: " + joined)
	return 2
}

func (f *fakeConda) sortedPackages() []string {
	names := make([]string, 0, len(f.packages))
	for name := range f.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *fakeConda) lastCall() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func without(list []string, s string) []string {
	out := []string{}
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

type stubFetcher struct{ err error }

func (s stubFetcher) Fetch(ctx context.Context, url string, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, "#!/bin/sh\n")
	return err
}
