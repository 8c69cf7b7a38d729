package catalog

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a comparable package version. Strings that semver accepts after
// conda spellings are normalised compare with semver rules; anything else
// compares segment by segment. In both modes a release sorts after its
// pre-releases.
type Version struct {
	raw  string
	sv   *semver.Version
	nums []int
	pre  string
}

// ParseVersion never fails; unparseable input still yields a Version that
// orders by its numeric segments.
func ParseVersion(s string) Version {
	raw := strings.TrimSpace(s)
	v := Version{raw: raw}

	main := raw
	if i := strings.IndexByte(main, '!'); i >= 0 {
		main = main[i+1:]
	}
	var local string
	main, local, _ = strings.Cut(main, "+")
	main = strings.ReplaceAll(main, "_", ".")

	core, pre := splitPrerelease(main)
	v.pre = pre
	for _, seg := range core {
		n, _ := strconv.Atoi(seg)
		v.nums = append(v.nums, n)
	}

	if len(core) > 0 && len(core) <= 3 {
		text := strings.Join(core, ".")
		if pre != "" {
			text += "-" + pre
		}
		if local != "" {
			text += "+" + local
		}
		if sv, err := semver.NewVersion(text); err == nil {
			v.sv = sv
		}
	}
	return v
}

// splitPrerelease separates the leading all-digit segments from the rest, so
// "1.0rc1" yields ([1 0], "rc1") and "1.0.0.dev0" yields ([1 0 0], "dev0").
func splitPrerelease(s string) ([]string, string) {
	if s == "" {
		return nil, ""
	}
	segs := strings.Split(s, ".")
	var core []string
	for i, seg := range segs {
		digits := leadingDigits(seg)
		if digits == len(seg) && seg != "" {
			core = append(core, seg)
			continue
		}
		rest := segs[i+1:]
		if digits > 0 {
			core = append(core, seg[:digits])
			seg = seg[digits:]
		}
		pre := strings.Join(append([]string{seg}, rest...), ".")
		return core, strings.TrimLeft(pre, "-.")
	}
	return core, ""
}

func leadingDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

func (v Version) String() string { return v.raw }

// IsZero reports whether v was parsed from an empty string.
func (v Version) IsZero() bool { return v.raw == "" }

// Prerelease returns the pre-release part, if any.
func (v Version) Prerelease() string { return v.pre }

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	if v.sv != nil && o.sv != nil {
		return v.sv.Compare(o.sv)
	}

	for i, n := 0, max(len(v.nums), len(o.nums)); i < n; i++ {
		a, b := segment(v.nums, i), segment(o.nums, i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}

	switch {
	case v.pre == o.pre:
		return 0
	case v.pre == "":
		return 1
	case o.pre == "":
		return -1
	}
	return strings.Compare(v.pre, o.pre)
}

// segment returns nums[i], or 0 past the end so "1.2" equals "1.2.0".
func segment(nums []int, i int) int {
	if i < len(nums) {
		return nums[i]
	}
	return 0
}

func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

func (v Version) MarshalText() ([]byte, error) { return []byte(v.raw), nil }

func (v *Version) UnmarshalText(text []byte) error {
	*v = ParseVersion(string(text))
	return nil
}
