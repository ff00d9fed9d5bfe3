package resolver

import (
	"github.com/bayleafwalker/bindery-resolver/internal/classpath"
	"github.com/bayleafwalker/bindery-resolver/internal/condition"
	"github.com/bayleafwalker/bindery-resolver/internal/deployment"
	"github.com/bayleafwalker/bindery-resolver/internal/exclusion"
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
)

// Input is the normalized view of one application build that the resolver operates on.
//
// Graph and Conditions come from the extension metadata (manifests); Direct and
// Exclusions come from the application.
type Input struct {
	Graph      *graph.Graph
	Conditions *condition.Registry

	// Direct are the application's declared direct dependencies.
	Direct []DirectDependency
	// Exclusions are (fromPackage, pattern) pairs declared by the application. They apply
	// to everything reached through the direct edge to fromPackage.
	Exclusions []exclusion.Declaration

	// PlatformVersion, when set, is checked against PlatformConstraints of every included
	// package.
	PlatformVersion     string
	PlatformConstraints map[graph.Key]string

	Options Options
}

// DirectDependency is one entry of the application's dependency list.
type DirectDependency struct {
	Key        graph.Key
	Scope      graph.Scope
	Exclusions []exclusion.Pattern
}

// Options tunes a single resolution run.
type Options struct {
	// MaxPasses caps the closure. Zero runs it to convergence.
	MaxPasses int
	// StrictExclusions turns exclusions that match no package into configuration errors.
	StrictExclusions bool
	// Order permutes processing order inside the closure. Test hook only.
	Order func(ids []graph.ID)
}

// Plan is the output handed to the build pipeline.
type Plan struct {
	RunID           string                         `json:"runID"`
	Dependencies    []classpath.ResolvedDependency `json:"dependencies"`
	DeploymentGraph deployment.Graph               `json:"deploymentGraph"`
	Diagnostics     Diagnostics                    `json:"diagnostics"`
	Passes          int                            `json:"passes"`
}

// Diagnostics captures human-readable information about resolution.
//
// Nothing here fails the build; it is meant for status, events and logging.
type Diagnostics struct {
	Unsatisfied []UnsatisfiedOffer `json:"unsatisfied,omitempty"`
	Warnings    []Warning          `json:"warnings,omitempty"`
}

// UnsatisfiedOffer is a conditionally offered package whose condition never held.
type UnsatisfiedOffer struct {
	Package         graph.Coordinate   `json:"package"`
	OfferedBy       []graph.Coordinate `json:"offeredBy"`
	MissingTriggers []graph.Key        `json:"missingTriggers,omitempty"`
}

// WarningKind classifies a Warning.
type WarningKind string

const (
	WarningUnknownExclusion   WarningKind = "UnknownExclusion"
	WarningExclusionNotDirect WarningKind = "ExclusionNotDirect"
	WarningPlatform           WarningKind = "PlatformConstraint"
)

type Warning struct {
	Kind    WarningKind `json:"kind"`
	Package string      `json:"package"`
	Message string      `json:"message"`
}

// Included reports whether the plan puts key on the runtime classpath.
func (p Plan) Included(k graph.Key) bool {
	for _, d := range p.Dependencies {
		if d.Kind == classpath.ArtifactRuntime && d.Coordinate.Key() == k {
			return true
		}
	}
	return false
}

// Dependency returns the runtime record of key.
func (p Plan) Dependency(k graph.Key) (classpath.ResolvedDependency, bool) {
	for _, d := range p.Dependencies {
		if d.Kind == classpath.ArtifactRuntime && d.Coordinate.Key() == k {
			return d, true
		}
	}
	return classpath.ResolvedDependency{}, false
}
