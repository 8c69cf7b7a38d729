package runner

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// CommandLine renders command and args as a copy-pasteable shell line. It is
// used for logs and error messages only; commands are never run through a
// shell.
func CommandLine(command string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(command))
	for _, arg := range args {
		parts = append(parts, quote(arg))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return strconv.Quote(s)
	}
	return q
}
