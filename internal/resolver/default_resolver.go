package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/bayleafwalker/bindery-resolver/internal/classpath"
	"github.com/bayleafwalker/bindery-resolver/internal/closure"
	"github.com/bayleafwalker/bindery-resolver/internal/deployment"
	"github.com/bayleafwalker/bindery-resolver/internal/exclusion"
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// DefaultResolver is the resolver wired into the controller and the CLI.
type DefaultResolver struct {
	// newRunID is replaced in tests.
	newRunID func() string
}

func NewDefault() *DefaultResolver {
	return &DefaultResolver{newRunID: uuid.NewString}
}

// Resolve runs the full pipeline: configuration checks, exclusion filter, closure,
// classpath flags and deployment projection.
//
// Configuration errors (conflicting conditions, unknown direct dependencies, strict
// exclusion violations) abort the whole run before the closure starts. Unsatisfied
// offers and unknown exclusions are reported in Plan.Diagnostics.
func (r *DefaultResolver) Resolve(ctx context.Context, in Input) (Plan, error) {
	_ = ctx

	if in.Graph == nil {
		return Plan{}, ErrNoGraph
	}
	g := in.Graph

	if in.Conditions != nil {
		if err := in.Conditions.Err(); err != nil {
			return Plan{}, err
		}
	}

	plan := Plan{RunID: r.newRunID()}

	filter := exclusion.NewFilter(in.Exclusions)
	roots, err := rootsOf(g, in.Direct, filter)
	if err != nil {
		return Plan{}, err
	}

	warnings := exclusionWarnings(g, in.Direct, in.Exclusions, filter)
	if in.Options.StrictExclusions {
		var errs error
		for _, w := range warnings {
			if w.Kind != WarningUnknownExclusion {
				continue
			}
			errs = multierr.Append(errs, graph.Configf(w.Package, "%s", w.Message))
		}
		if errs != nil {
			return Plan{}, errs
		}
	}
	plan.Diagnostics.Warnings = append(plan.Diagnostics.Warnings, warnings...)

	state := closure.New(g, in.Conditions, closure.Options{Order: in.Options.Order})
	state.Seed(roots)
	if err := state.Converge(in.Options.MaxPasses); err != nil {
		return Plan{}, err
	}
	plan.Passes = state.Passes()

	plan.Dependencies = classpath.Assign(g, state)
	plan.DeploymentGraph = deployment.Project(g, state)

	for _, u := range state.Unsatisfied() {
		offer := UnsatisfiedOffer{
			Package:         g.Package(u.ID).Coordinate,
			MissingTriggers: u.Missing,
		}
		for _, from := range u.OfferedBy {
			offer.OfferedBy = append(offer.OfferedBy, g.Package(from).Coordinate)
		}
		plan.Diagnostics.Unsatisfied = append(plan.Diagnostics.Unsatisfied, offer)
	}

	plan.Diagnostics.Warnings = append(plan.Diagnostics.Warnings,
		platformWarnings(g, state, in.PlatformVersion, in.PlatformConstraints)...)

	return plan, nil
}

func rootsOf(g *graph.Graph, direct []DirectDependency, filter *exclusion.Filter) ([]closure.Root, error) {
	var errs error
	roots := make([]closure.Root, 0, len(direct))
	for _, d := range direct {
		id, ok := g.Lookup(d.Key)
		if !ok {
			errs = multierr.Append(errs, graph.Configf(d.Key.String(), "direct dependency is not part of the graph"))
			continue
		}
		scope := graph.NormalizeScope(d.Scope)
		if !scope.Valid() {
			errs = multierr.Append(errs, graph.Configf(d.Key.String(), "direct dependency has unknown scope %q", d.Scope))
			continue
		}
		roots = append(roots, closure.Root{
			ID:         id,
			Scope:      scope,
			Exclusions: exclusion.NewSet(d.Exclusions...).Union(filter.For(d.Key.Group, d.Key.Name)),
		})
	}
	return roots, errs
}

// exclusionWarnings reports patterns that match no package of the graph and application
// exclusions declared against a package that is not a direct dependency.
func exclusionWarnings(g *graph.Graph, direct []DirectDependency, decls []exclusion.Declaration, filter *exclusion.Filter) []Warning {
	var out []Warning

	isDirect := make(map[graph.Key]bool, len(direct))
	declared := make([]exclusion.Declaration, 0, len(direct)+len(decls))
	for _, d := range direct {
		isDirect[d.Key] = true
		if len(d.Exclusions) > 0 {
			declared = append(declared, exclusion.Declaration{FromGroup: d.Key.Group, FromName: d.Key.Name, Excluded: d.Exclusions})
		}
	}

	notDirect := make(map[graph.Key]bool)
	for _, d := range decls {
		k := graph.Key{Group: d.FromGroup, Name: d.FromName}
		if !isDirect[k] && !notDirect[k] {
			notDirect[k] = true
			out = append(out, Warning{
				Kind:    WarningExclusionNotDirect,
				Package: k.String(),
				Message: "exclusions declared on a package that is not a direct dependency have no effect",
			})
		}
	}

	unknown := exclusion.NewFilter(declared).Unknown(g.AnyMatches)
	unknown = append(unknown, filter.Unknown(g.AnyMatches)...)
	for _, id := range g.IDs() {
		from := g.Package(id).Coordinate
		var edgeDecls []exclusion.Declaration
		for _, e := range g.Edges(id) {
			if !e.Exclusions.Empty() {
				edgeDecls = append(edgeDecls, exclusion.Declaration{FromGroup: from.Group, FromName: from.Name, Excluded: e.Exclusions.Patterns()})
			}
		}
		unknown = append(unknown, exclusion.NewFilter(edgeDecls).Unknown(g.AnyMatches)...)
	}

	seen := make(map[exclusion.Unknown]bool, len(unknown))
	for _, u := range unknown {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, Warning{
			Kind:    WarningUnknownExclusion,
			Package: graph.Key{Group: u.FromGroup, Name: u.FromName}.String(),
			Message: fmt.Sprintf("exclusion %s matches no package in the graph", u.Pattern),
		})
	}
	return out
}

// platformWarnings checks the platform version against the constraint of every included
// package that declares one.
func platformWarnings(g *graph.Graph, s *closure.State, platformVersion string, constraints map[graph.Key]string) []Warning {
	if platformVersion == "" || len(constraints) == 0 {
		return nil
	}
	v, err := semver.ParseVersion(platformVersion)
	if err != nil {
		return []Warning{{
			Kind:    WarningPlatform,
			Message: fmt.Sprintf("platform version %q is not a semantic version; constraints not checked", platformVersion),
		}}
	}

	var out []Warning
	for _, id := range s.Included() {
		k := g.Package(id).Key()
		raw, ok := constraints[k]
		if !ok || raw == "" {
			continue
		}
		c, err := semver.ParseConstraint(raw)
		if err != nil {
			out = append(out, Warning{Kind: WarningPlatform, Package: k.String(), Message: fmt.Sprintf("invalid platform constraint %q", raw)})
			continue
		}
		if !semver.Satisfies(v, c) {
			out = append(out, Warning{
				Kind:    WarningPlatform,
				Package: k.String(),
				Message: fmt.Sprintf("requires platform %s, building against %s", raw, platformVersion),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}
