package catalog

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// ListEntry is one element of `conda list --json`.
type ListEntry struct {
	Raw     string `json:"raw"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Build   string `json:"build,omitempty"`
	Channel string `json:"channel,omitempty"`
}

type listObject struct {
	Name        *string `json:"name"`
	Version     string  `json:"version"`
	BuildString string  `json:"build_string"`
	Channel     string  `json:"channel"`
	DistName    string  `json:"dist_name"`
}

// ParseList accepts both the legacy array of fullname strings and the array
// of package objects newer conda releases print.
func ParseList(data []byte) ([]ListEntry, error) {
	data = bytes.TrimSpace(data)
	if err := managerError(data); err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, shapeErr("list", "want a JSON array", data)
	}

	entries := make([]ListEntry, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		switch {
		case len(item) > 0 && item[0] == '"':
			var full string
			if err := json.Unmarshal(item, &full); err != nil {
				return nil, shapeErr("list", "invalid string element", item)
			}
			entries = append(entries, parseFullName(full))
		case len(item) > 0 && item[0] == '{':
			var obj listObject
			if err := json.Unmarshal(item, &obj); err != nil || obj.Name == nil || *obj.Name == "" {
				return nil, shapeErr("list", "package object without a name", item)
			}
			entries = append(entries, obj.entry())
		default:
			return nil, shapeErr("list", "element is neither a string nor an object", item)
		}
	}
	return entries, nil
}

func (o listObject) entry() ListEntry {
	e := ListEntry{Name: *o.Name, Version: o.Version, Build: o.BuildString, Channel: o.Channel}
	dist := o.DistName
	if dist == "" {
		dist = strings.Join(nonEmpty(e.Name, e.Version, e.Build), "-")
	}
	e.Raw = dist
	if e.Channel != "" {
		e.Raw = e.Channel + "::" + dist
	}
	return e
}

// parseFullName splits "channel::name-version-build".
func parseFullName(full string) ListEntry {
	e := ListEntry{Raw: full}
	dist := full
	if ch, rest, ok := strings.Cut(full, "::"); ok {
		e.Channel, dist = ch, rest
	}
	parts := strings.Split(dist, "-")
	if len(parts) < 3 {
		e.Name = dist
		return e
	}
	e.Build = parts[len(parts)-1]
	e.Version = parts[len(parts)-2]
	e.Name = strings.Join(parts[:len(parts)-2], "-")
	return e
}

// FindInList returns the first entry whose fullname starts with name or
// contains "::name".
func FindInList(entries []ListEntry, name string) (ListEntry, bool) {
	for _, e := range entries {
		if strings.HasPrefix(e.Raw, name) || strings.Contains(e.Raw, "::"+name) {
			return e, true
		}
	}
	return ListEntry{}, false
}

// SearchEntry is one build of a package reported by `conda search --json`.
type SearchEntry struct {
	Version string `json:"version"`
	Build   string `json:"build,omitempty"`
	Channel string `json:"channel,omitempty"`
	Subdir  string `json:"subdir,omitempty"`
}

// SearchResult maps package names to their available builds.
type SearchResult map[string][]SearchEntry

// ParseSearch validates and decodes `conda search --json` output. Every
// build must carry a string "version".
func ParseSearch(data []byte) (SearchResult, error) {
	data = bytes.TrimSpace(data)
	if err := managerError(data); err != nil {
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return nil, shapeErr("search", "want a JSON object", data)
	}

	result := make(SearchResult, len(top))
	for name, raw := range top {
		var builds []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &builds); err != nil {
			return nil, shapeErr("search", "package "+name+": want an array of objects", raw)
		}
		entries := make([]SearchEntry, 0, len(builds))
		for _, b := range builds {
			var e SearchEntry
			rawVersion, ok := b["version"]
			if !ok {
				return nil, shapeErr("search", "package "+name+": build without version", raw)
			}
			if err := json.Unmarshal(rawVersion, &e.Version); err != nil {
				return nil, shapeErr("search", "package "+name+": version is not a string", rawVersion)
			}
			for key, dst := range map[string]*string{"build": &e.Build, "channel": &e.Channel, "subdir": &e.Subdir} {
				if err := optionalString(b, key, dst); err != nil {
					return nil, shapeErr("search", "package "+name+": "+key+" is not a string", b[key])
				}
			}
			entries = append(entries, e)
		}
		result[name] = entries
	}
	return result, nil
}

// Names returns every package name when version is empty, otherwise the names
// with a build whose version string equals version exactly. Sorted.
func (r SearchResult) Names(version string) []string {
	var names []string
	for name, entries := range r {
		if version == "" {
			names = append(names, name)
			continue
		}
		for _, e := range entries {
			if e.Version == version {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// Latest returns the highest version available for name. Entries with an
// empty version are ignored.
func (r SearchResult) Latest(name string) (Version, bool) {
	var best Version
	for _, e := range r[name] {
		v := ParseVersion(e.Version)
		if v.IsZero() {
			continue
		}
		if best.IsZero() || best.Less(v) {
			best = v
		}
	}
	return best, !best.IsZero()
}

// ParseChannels decodes `conda config --get channels --json`. A missing
// "channels" key means no channels are configured.
func ParseChannels(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if err := managerError(data); err != nil {
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return nil, shapeErr("channels", "want a JSON object", data)
	}
	rawGet, ok := top["get"]
	if !ok {
		return nil, shapeErr("channels", `missing "get" key`, data)
	}
	var get map[string]json.RawMessage
	if err := json.Unmarshal(rawGet, &get); err != nil || get == nil {
		return nil, shapeErr("channels", `"get" is not an object`, rawGet)
	}
	rawChannels, ok := get["channels"]
	if !ok {
		return []string{}, nil
	}
	var channels []string
	if err := json.Unmarshal(rawChannels, &channels); err != nil {
		return nil, shapeErr("channels", `"channels" is not an array of strings`, rawChannels)
	}
	if channels == nil {
		channels = []string{}
	}
	return channels, nil
}

func managerError(data []byte) error {
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var me ManagerError
	if err := json.Unmarshal(data, &me); err != nil || me.Exception == "" {
		return nil
	}
	return &me
}

// optionalString decodes obj[key] into dst when present. A null value
// leaves dst empty.
func optionalString(obj map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
