// Package classpath assigns the final classpath flags to a converged closure.
package classpath

import (
	"sort"

	"github.com/bayleafwalker/bindery-resolver/internal/closure"
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
)

// ArtifactKind distinguishes a package's runtime artifact from its deployment artifact.
type ArtifactKind string

const (
	ArtifactRuntime    ArtifactKind = "runtime"
	ArtifactDeployment ArtifactKind = "deployment"
)

// ResolvedDependency is one artifact handed to the build pipeline.
type ResolvedDependency struct {
	Coordinate graph.Coordinate `json:"coordinate"`
	Kind       ArtifactKind     `json:"kind"`
	// Owner is the runtime coordinate the artifact belongs to. For runtime artifacts it
	// equals Coordinate.
	Owner graph.Coordinate `json:"owner"`

	OnRuntimeClasspath    bool        `json:"onRuntimeClasspath"`
	OnDeploymentClasspath bool        `json:"onDeploymentClasspath"`
	DeploymentScope       graph.Scope `json:"deploymentScope"`

	// RuntimeScope is the strongest edge scope the package was reached with.
	// Informational only.
	RuntimeScope graph.Scope `json:"runtimeScope"`
	Origin       string      `json:"origin"`
}

// DeploymentScope returns COMPILE for packages included by the seed step and RUNTIME for
// packages that entered only through activation. The seed runs before any activation, so
// a package reachable both ways is always recorded as seeded.
func DeploymentScope(s *closure.State, id graph.ID) graph.Scope {
	if s.Origin(id) == closure.OriginSeed {
		return graph.ScopeCompile
	}
	return graph.ScopeRuntime
}

// Assign emits one record per included runtime artifact and one per deployment artifact
// of an included package, ordered by coordinate.
func Assign(g *graph.Graph, s *closure.State) []ResolvedDependency {
	included := s.Included()
	out := make([]ResolvedDependency, 0, 2*len(included))
	for _, id := range included {
		pkg := g.Package(id)
		scope := DeploymentScope(s, id)
		out = append(out, ResolvedDependency{
			Coordinate:            pkg.Coordinate,
			Kind:                  ArtifactRuntime,
			Owner:                 pkg.Coordinate,
			OnRuntimeClasspath:    true,
			OnDeploymentClasspath: true,
			DeploymentScope:       scope,
			RuntimeScope:          s.Scope(id),
			Origin:                s.Origin(id).String(),
		})
		if pkg.HasDeployment() {
			out = append(out, ResolvedDependency{
				Coordinate:            *pkg.Deployment,
				Kind:                  ArtifactDeployment,
				Owner:                 pkg.Coordinate,
				OnDeploymentClasspath: true,
				DeploymentScope:       scope,
				RuntimeScope:          s.Scope(id),
				Origin:                s.Origin(id).String(),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Coordinate.String() < out[j].Coordinate.String()
	})
	return out
}

// Filter returns the records for which keep reports true.
func Filter(deps []ResolvedDependency, keep func(ResolvedDependency) bool) []ResolvedDependency {
	var out []ResolvedDependency
	for _, d := range deps {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// RuntimeClasspath returns the records that belong on the runtime classpath.
func RuntimeClasspath(deps []ResolvedDependency) []ResolvedDependency {
	return Filter(deps, func(d ResolvedDependency) bool { return d.OnRuntimeClasspath })
}

// DeploymentClasspath returns the records that belong on the deployment classpath.
func DeploymentClasspath(deps []ResolvedDependency) []ResolvedDependency {
	return Filter(deps, func(d ResolvedDependency) bool { return d.OnDeploymentClasspath })
}
