// Package condition indexes the activation condition of every conditionally offered package.
//
// A condition is a property of the package, not of the edge that offers it. The first
// registration for a package wins; a later registration with a different trigger set is a
// configuration error rather than a merge, so activation never depends on which offerer
// happened to be visited first.
package condition

import (
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/bayleafwalker/bindery-resolver/internal/graph"
)

type entry struct {
	triggers []graph.Key
	source   string
}

// Registry maps a package key to its trigger set.
type Registry struct {
	byKey map[graph.Key]entry
	errs  error
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[graph.Key]entry)}
}

// Register records that pkg may only be included once every trigger is included.
// source names the declaration (an extension or manifest) for error reporting.
//
// The returned error is also retained and reported again by Err.
func (r *Registry) Register(pkg graph.Key, triggers []graph.Key, source string) error {
	normalized := normalize(triggers)
	if len(normalized) == 0 {
		err := graph.Configf(pkg.String(), "empty dependency condition declared by %s", source)
		r.errs = multierr.Append(r.errs, err)
		return err
	}

	existing, ok := r.byKey[pkg]
	if !ok {
		r.byKey[pkg] = entry{triggers: normalized, source: source}
		return nil
	}
	if sameKeys(existing.triggers, normalized) {
		return nil
	}
	err := graph.Configf(pkg.String(), "conflicting dependency conditions %s (from %s) and %s (from %s)",
		formatKeys(existing.triggers), existing.source, formatKeys(normalized), source)
	r.errs = multierr.Append(r.errs, err)
	return err
}

// TriggersOf returns the trigger set of pkg, if one was registered.
func (r *Registry) TriggersOf(pkg graph.Key) ([]graph.Key, bool) {
	e, ok := r.byKey[pkg]
	if !ok {
		return nil, false
	}
	out := make([]graph.Key, len(e.triggers))
	copy(out, e.triggers)
	return out, true
}

// Missing returns the triggers of pkg for which present reports false. A package without
// a condition has nothing missing.
func (r *Registry) Missing(pkg graph.Key, present func(graph.Key) bool) []graph.Key {
	e, ok := r.byKey[pkg]
	if !ok {
		return nil
	}
	var missing []graph.Key
	for _, t := range e.triggers {
		if !present(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// Len returns the number of registered conditions.
func (r *Registry) Len() int { return len(r.byKey) }

// Err returns every configuration error seen so far, combined.
func (r *Registry) Err() error { return r.errs }

func normalize(keys []graph.Key) []graph.Key {
	seen := make(map[graph.Key]struct{}, len(keys))
	out := make([]graph.Key, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func sameKeys(a, b []graph.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatKeys(keys []graph.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
