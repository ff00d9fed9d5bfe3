package exclusion

import (
	"fmt"
	"sort"
	"strings"
)

// Wildcard matches any group or any name.
const Wildcard = "*"

// Pattern excludes packages by group and name. Either half may be Wildcard.
type Pattern struct {
	Group string
	Name  string
}

// ParsePattern parses "group:name". A bare "name" is treated as "*:name".
func ParsePattern(raw string) (Pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Pattern{}, fmt.Errorf("exclusion: empty pattern")
	}
	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 1:
		return Pattern{Group: Wildcard, Name: parts[0]}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Pattern{}, fmt.Errorf("exclusion: parse pattern %q: empty group or name", raw)
		}
		return Pattern{Group: parts[0], Name: parts[1]}, nil
	default:
		return Pattern{}, fmt.Errorf("exclusion: parse pattern %q: expected group:name", raw)
	}
}

func (p Pattern) String() string {
	return p.Group + ":" + p.Name
}

// Matches reports whether the package group:name is excluded by p.
func (p Pattern) Matches(group, name string) bool {
	if p.Group != Wildcard && p.Group != group {
		return false
	}
	return p.Name == Wildcard || p.Name == name
}

func (p Pattern) less(o Pattern) bool {
	if p.Group != o.Group {
		return p.Group < o.Group
	}
	return p.Name < o.Name
}

// Set is an immutable, sorted, de-duplicated collection of patterns.
// The zero value is the empty set.
type Set struct {
	patterns []Pattern
}

// NewSet builds a Set from the given patterns.
func NewSet(patterns ...Pattern) Set {
	if len(patterns) == 0 {
		return Set{}
	}
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	n := 0
	for i := range out {
		if n > 0 && out[n-1] == out[i] {
			continue
		}
		out[n] = out[i]
		n++
	}
	return Set{patterns: out[:n]}
}

// Len returns the number of patterns.
func (s Set) Len() int { return len(s.patterns) }

// Empty reports whether s excludes nothing.
func (s Set) Empty() bool { return len(s.patterns) == 0 }

// Patterns returns a copy of the patterns in canonical order.
func (s Set) Patterns() []Pattern {
	out := make([]Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Excludes reports whether any pattern matches group:name.
func (s Set) Excludes(group, name string) bool {
	for _, p := range s.patterns {
		if p.Matches(group, name) {
			return true
		}
	}
	return false
}

// Union returns the set of patterns in s or o.
func (s Set) Union(o Set) Set {
	if o.Empty() {
		return s
	}
	if s.Empty() {
		return o
	}
	merged := make([]Pattern, 0, len(s.patterns)+len(o.patterns))
	merged = append(merged, s.patterns...)
	merged = append(merged, o.patterns...)
	return NewSet(merged...)
}

// SubsetOf reports whether every pattern of s is also in o.
// Both sets are sorted, so this is a linear merge.
func (s Set) SubsetOf(o Set) bool {
	if len(s.patterns) > len(o.patterns) {
		return false
	}
	j := 0
	for _, p := range s.patterns {
		for j < len(o.patterns) && o.patterns[j].less(p) {
			j++
		}
		if j == len(o.patterns) || o.patterns[j] != p {
			return false
		}
		j++
	}
	return true
}

// Equal reports whether s and o hold the same patterns.
func (s Set) Equal(o Set) bool {
	return len(s.patterns) == len(o.patterns) && s.SubsetOf(o)
}

func (s Set) String() string {
	parts := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
