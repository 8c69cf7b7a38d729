// Package catalog turns conda's query output into comparable package records.
package catalog

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
)

// Record is one installed package.
type Record struct {
	Name    string  `json:"name"`
	Version Version `json:"version"`
	Build   string  `json:"build"`
	Raw     string  `json:"raw"`
}

// ParseExport parses `conda list --export` output. Blank lines and lines
// starting with '#' are skipped; a repeated name keeps its last line.
func ParseExport(text string) (map[string]Record, error) {
	records := map[string]Record{}
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "=")
		if len(fields) != 3 || fields[0] == "" {
			return nil, &MalformedLineError{Line: lineNo, Text: line}
		}
		records[fields[0]] = Record{
			Name:    fields[0],
			Version: ParseVersion(fields[1]),
			Build:   fields[2],
			Raw:     line,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read export output: %w", err)
	}
	return records, nil
}

// SortedRecords returns the records ordered by name.
func SortedRecords(records map[string]Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the record names, sorted.
func Names(records map[string]Record) []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
