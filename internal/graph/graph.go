// Package graph models packages and the dependency edges between them.
//
// Packages live in an arena and are addressed by ID; edges are adjacency lists keyed by
// the source ID. The graph legitimately contains cycles (conditions may be mutually
// referential), so nothing holds a pointer back to its parent.
package graph

import (
	"sort"

	"go.uber.org/multierr"

	"github.com/bayleafwalker/bindery-resolver/internal/exclusion"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// ID indexes a package in a Graph's arena.
type ID int

// Package is a build unit with one runtime artifact (its own coordinate) and an optional
// deployment artifact.
type Package struct {
	Coordinate Coordinate
	Deployment *Coordinate
}

func (p Package) Key() Key { return p.Coordinate.Key() }

// HasDeployment reports whether the package ships a deployment artifact.
func (p Package) HasDeployment() bool { return p.Deployment != nil }

// Edge is a directed dependency from one package to another.
type Edge struct {
	From       ID
	To         ID
	Kind       EdgeKind
	Scope      Scope
	Exclusions exclusion.Set
}

// Graph is the immutable input of one resolution run.
type Graph struct {
	packages []Package
	index    map[Key]ID
	out      [][]Edge
}

// Len returns the number of packages.
func (g *Graph) Len() int { return len(g.packages) }

// Package returns the package stored at id.
func (g *Graph) Package(id ID) Package { return g.packages[id] }

// Lookup returns the ID of the package with the given key.
func (g *Graph) Lookup(k Key) (ID, bool) {
	id, ok := g.index[k]
	return id, ok
}

// Edges returns the outgoing edges of id, hard and conditional, in declaration order.
func (g *Graph) Edges(id ID) []Edge { return g.out[id] }

// IDs returns every package ID ordered by key.
func (g *Graph) IDs() []ID {
	ids := make([]ID, len(g.packages))
	for i := range ids {
		ids[i] = ID(i)
	}
	g.SortByKey(ids)
	return ids
}

// SortByKey orders ids by package key, the canonical output order.
func (g *Graph) SortByKey(ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		return g.packages[ids[i]].Key().String() < g.packages[ids[j]].Key().String()
	})
}

// AnyMatches reports whether p excludes at least one package of the graph.
func (g *Graph) AnyMatches(p exclusion.Pattern) bool {
	for _, pkg := range g.packages {
		if p.Matches(pkg.Coordinate.Group, pkg.Coordinate.Name) {
			return true
		}
	}
	return false
}

// Builder assembles a Graph. Problems are collected and reported together by Build.
type Builder struct {
	packages []Package
	index    map[Key]ID
	edges    []pendingEdge
	errs     error
}

type pendingEdge struct {
	from, to   Key
	kind       EdgeKind
	scope      Scope
	exclusions exclusion.Set
}

func NewBuilder() *Builder {
	return &Builder{index: make(map[Key]ID)}
}

// AddPackage registers a package. Adding the same key twice is allowed when the versions
// agree; the deployment artifact is filled in from whichever declaration carries it.
// A deployment artifact without a version inherits the runtime version.
func (b *Builder) AddPackage(c Coordinate, deployment *Coordinate) ID {
	if deployment != nil {
		d := *deployment
		if d.Version == "" {
			d.Version = c.Version
		}
		deployment = &d
	}

	if id, ok := b.index[c.Key()]; ok {
		existing := &b.packages[id]
		if !semver.SameVersion(existing.Coordinate.Version, c.Version) {
			b.errs = multierr.Append(b.errs, Configf(c.Key().String(),
				"declared with conflicting versions %q and %q", existing.Coordinate.Version, c.Version))
			return id
		}
		switch {
		case deployment == nil:
		case existing.Deployment == nil:
			existing.Deployment = deployment
		case *existing.Deployment != *deployment:
			b.errs = multierr.Append(b.errs, Configf(c.Key().String(),
				"declared with conflicting deployment artifacts %s and %s", existing.Deployment, deployment))
		}
		return id
	}

	id := ID(len(b.packages))
	b.packages = append(b.packages, Package{Coordinate: c, Deployment: deployment})
	b.index[c.Key()] = id
	return id
}

// AddEdge records an edge between two keys. Both ends must be added with AddPackage
// before Build.
func (b *Builder) AddEdge(from, to Key, kind EdgeKind, scope Scope, exclusions exclusion.Set) {
	b.edges = append(b.edges, pendingEdge{
		from:       from,
		to:         to,
		kind:       kind,
		scope:      NormalizeScope(scope),
		exclusions: exclusions,
	})
}

// Build validates the collected edges and returns the immutable Graph.
func (b *Builder) Build() (*Graph, error) {
	errs := b.errs
	out := make([][]Edge, len(b.packages))
	for _, e := range b.edges {
		from, ok := b.index[e.from]
		if !ok {
			errs = multierr.Append(errs, Configf(e.from.String(), "declares a dependency but is not part of the graph"))
			continue
		}
		to, ok := b.index[e.to]
		if !ok {
			errs = multierr.Append(errs, Configf(e.from.String(), "depends on %s which is not part of the graph", e.to))
			continue
		}
		if !e.scope.Valid() {
			errs = multierr.Append(errs, Configf(e.from.String(), "dependency on %s has unknown scope %q", e.to, e.scope))
			continue
		}
		if e.kind != EdgeHard && e.kind != EdgeConditional {
			errs = multierr.Append(errs, Configf(e.from.String(), "dependency on %s has unknown kind %q", e.to, e.kind))
			continue
		}
		out[from] = append(out[from], Edge{From: from, To: to, Kind: e.kind, Scope: e.scope, Exclusions: e.exclusions})
	}
	if errs != nil {
		return nil, errs
	}

	packages := make([]Package, len(b.packages))
	copy(packages, b.packages)
	index := make(map[Key]ID, len(b.index))
	for k, v := range b.index {
		index[k] = v
	}
	return &Graph{packages: packages, index: index, out: out}, nil
}
