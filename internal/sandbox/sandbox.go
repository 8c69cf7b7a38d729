// Package sandbox builds the environment handed to every conda subprocess.
//
// Any inherited variable in conda's namespace can redirect the manager to a
// different installation or configuration, so the child environment drops
// all of them and points CONDARC at the private config file instead. The
// result is computed per invocation and applied only to the child process.
package sandbox

import (
	"sort"
	"strings"
)

const (
	DefaultReservedPrefix = "CONDA"
	DefaultConfigVar      = "CONDARC"
)

// Options controls which variables are stripped and what is injected.
type Options struct {
	ReservedPrefix string
	ConfigVar      string
	ConfigPath     string
}

func (o Options) withDefaults() Options {
	if o.ReservedPrefix == "" {
		o.ReservedPrefix = DefaultReservedPrefix
	}
	if o.ConfigVar == "" {
		o.ConfigVar = DefaultConfigVar
	}
	return o
}

// Build returns a copy of ambient without reserved variables and with the
// config variable set to opts.ConfigPath. Matching is case-sensitive and
// ambient is left untouched.
func Build(ambient map[string]string, opts Options) map[string]string {
	opts = opts.withDefaults()
	env := make(map[string]string, len(ambient)+1)
	for k, v := range ambient {
		if strings.HasPrefix(k, opts.ReservedPrefix) {
			continue
		}
		env[k] = v
	}
	env[opts.ConfigVar] = opts.ConfigPath
	return env
}

// Removed lists the ambient variable names Build would strip, sorted.
func Removed(ambient map[string]string, opts Options) []string {
	opts = opts.withDefaults()
	var names []string
	for k := range ambient {
		if strings.HasPrefix(k, opts.ReservedPrefix) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// FromEnviron converts os.Environ-style entries into a map. Later entries win.
func FromEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

// Environ renders env as sorted KEY=VALUE entries for exec.Cmd.Env.
func Environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
