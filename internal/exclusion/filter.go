// Package exclusion implements path-scoped dependency exclusions.
//
// An exclusion declared on an edge applies to everything reached through that edge,
// transitively. It never removes a package that is independently reachable through
// another path; the closure carries the accumulated exclusion Set along each path instead.
package exclusion

import (
	"sort"
)

// Declaration is one (fromPackage, excludedPattern) group declared by the application on
// its direct dependency edge to From.
type Declaration struct {
	FromGroup string
	FromName  string
	Excluded  []Pattern
}

// Unknown is an exclusion pattern that matched no package of the graph.
type Unknown struct {
	FromGroup string
	FromName  string
	Pattern   Pattern
}

// Filter indexes the application's exclusion declarations by direct dependency.
type Filter struct {
	byFrom map[string]Set
	decls  []Declaration
}

// NewFilter merges declarations that target the same direct dependency.
func NewFilter(decls []Declaration) *Filter {
	f := &Filter{byFrom: make(map[string]Set, len(decls))}
	for _, d := range decls {
		k := fromKey(d.FromGroup, d.FromName)
		f.byFrom[k] = f.byFrom[k].Union(NewSet(d.Excluded...))
	}
	f.decls = append(f.decls, decls...)
	return f
}

// For returns the exclusions declared on the application's edge to group:name.
func (f *Filter) For(group, name string) Set {
	if f == nil {
		return Set{}
	}
	return f.byFrom[fromKey(group, name)]
}

// Unknown returns the declared patterns for which known reports false, in a
// deterministic order. known is typically graph.Graph.AnyMatches.
func (f *Filter) Unknown(known func(Pattern) bool) []Unknown {
	if f == nil {
		return nil
	}
	seen := make(map[Unknown]struct{})
	var out []Unknown
	for _, d := range f.decls {
		for _, p := range d.Excluded {
			u := Unknown{FromGroup: d.FromGroup, FromName: d.FromName, Pattern: p}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			if !known(p) {
				out = append(out, u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if fa, fb := fromKey(a.FromGroup, a.FromName), fromKey(b.FromGroup, b.FromName); fa != fb {
			return fa < fb
		}
		return a.Pattern.less(b.Pattern)
	})
	return out
}

func fromKey(group, name string) string {
	return group + ":" + name
}
