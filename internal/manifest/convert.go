// Package manifest turns Application and ExtensionManifest objects into resolver input.
//
// The same conversion serves the controller (objects listed from the API server) and the
// CLI (objects decoded from YAML files).
package manifest

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"

	binderyv1alpha1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/condition"
	"github.com/bayleafwalker/bindery-resolver/internal/exclusion"
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
)

// DefaultCacheSize is the number of converted manifests a Converter keeps.
const DefaultCacheSize = 1024

// Converter builds resolver input. Parsed manifests are cached by UID and
// resourceVersion, so an unchanged manifest is parsed once across reconciles.
type Converter struct {
	cache *lru.Cache[string, *parsed]
}

// NewConverter returns a Converter caching up to size manifests. size <= 0 disables
// caching.
func NewConverter(size int) (*Converter, error) {
	if size <= 0 {
		return &Converter{}, nil
	}
	cache, err := lru.New[string, *parsed](size)
	if err != nil {
		return nil, fmt.Errorf("create manifest cache: %w", err)
	}
	return &Converter{cache: cache}, nil
}

// parsed is an ExtensionManifest with every string field validated.
type parsed struct {
	source     string
	coordinate graph.Coordinate
	deployment *graph.Coordinate
	hard       []edge
	offers     []offer
	condition  []graph.Key
	constraint string
}

type edge struct {
	to         graph.Coordinate
	scope      graph.Scope
	exclusions exclusion.Set
}

type offer struct {
	to    graph.Key
	scope graph.Scope
	when  []graph.Key
}

// Input converts app and the extension manifests visible to it.
func (c *Converter) Input(app *binderyv1alpha1.Application, exts []binderyv1alpha1.ExtensionManifest) (resolver.Input, error) {
	sorted := make([]binderyv1alpha1.ExtensionManifest, len(exts))
	copy(sorted, exts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Namespace != sorted[j].Namespace {
			return sorted[i].Namespace < sorted[j].Namespace
		}
		return sorted[i].Name < sorted[j].Name
	})

	var errs error
	manifests := make([]*parsed, 0, len(sorted))
	for i := range sorted {
		p, err := c.parse(&sorted[i])
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		manifests = append(manifests, p)
	}

	b := graph.NewBuilder()
	reg := condition.NewRegistry()
	constraints := make(map[graph.Key]string)

	for _, p := range manifests {
		b.AddPackage(p.coordinate, p.deployment)
		if p.constraint != "" {
			constraints[p.coordinate.Key()] = p.constraint
		}
	}
	// A package's own condition is registered before any offerer's copy of it, so the
	// error for a disagreeing offerer names the offerer.
	for _, p := range manifests {
		if len(p.condition) > 0 {
			_ = reg.Register(p.coordinate.Key(), p.condition, p.source)
		}
	}
	for _, p := range manifests {
		for _, e := range p.hard {
			if e.to.Version != "" {
				b.AddPackage(e.to, nil)
			}
			b.AddEdge(p.coordinate.Key(), e.to.Key(), graph.EdgeHard, e.scope, e.exclusions)
		}
		for _, o := range p.offers {
			b.AddEdge(p.coordinate.Key(), o.to, graph.EdgeConditional, o.scope, exclusion.Set{})
			if len(o.when) > 0 {
				_ = reg.Register(o.to, o.when, p.source)
			}
		}
	}

	in := resolver.Input{
		Conditions:          reg,
		PlatformConstraints: constraints,
	}
	if app != nil {
		in.PlatformVersion = strings.TrimSpace(app.Spec.PlatformVersion)
		for i, d := range app.Spec.Dependencies {
			to, err := dependencyCoordinate(d.GroupID, d.ArtifactID, d.Version)
			if err != nil {
				errs = multierr.Append(errs, graph.Configf(app.Name, "dependencies[%d]: %v", i, err))
				continue
			}
			patterns, err := parsePatterns(d.Exclusions)
			if err != nil {
				errs = multierr.Append(errs, graph.Configf(app.Name, "dependencies[%d]: %v", i, err))
				continue
			}
			if to.Version != "" {
				b.AddPackage(to, nil)
			}
			in.Direct = append(in.Direct, resolver.DirectDependency{
				Key:   to.Key(),
				Scope: graph.Scope(d.Scope),
			})
			if len(patterns) > 0 {
				in.Exclusions = append(in.Exclusions, exclusion.Declaration{
					FromGroup: to.Group,
					FromName:  to.Name,
					Excluded:  patterns,
				})
			}
		}
	}

	g, err := b.Build()
	errs = multierr.Append(errs, err)
	if errs != nil {
		return resolver.Input{}, errs
	}
	in.Graph = g
	return in, nil
}

func (c *Converter) parse(ext *binderyv1alpha1.ExtensionManifest) (*parsed, error) {
	cacheKey := ""
	if c != nil && c.cache != nil && ext.UID != "" && ext.ResourceVersion != "" {
		cacheKey = string(ext.UID) + "/" + ext.ResourceVersion
		if p, ok := c.cache.Get(cacheKey); ok {
			return p, nil
		}
	}

	p, err := parseManifest(ext)
	if err != nil {
		return nil, err
	}
	if cacheKey != "" {
		c.cache.Add(cacheKey, p)
	}
	return p, nil
}

// Validate reports every problem with a single manifest in isolation. Conflicts between
// manifests only show up when an application is resolved.
func Validate(ext *binderyv1alpha1.ExtensionManifest) error {
	_, err := parseManifest(ext)
	return err
}

func parseManifest(ext *binderyv1alpha1.ExtensionManifest) (*parsed, error) {
	spec := ext.Spec
	source := ext.Name
	if ext.Namespace != "" {
		source = ext.Namespace + "/" + ext.Name
	}

	self, err := dependencyCoordinate(spec.Artifact.GroupID, spec.Artifact.ArtifactID, spec.Artifact.Version)
	if err != nil {
		return nil, graph.Configf(source, "artifact: %v", err)
	}
	if self.Version == "" {
		return nil, graph.Configf(self.Key().String(), "artifact version is required")
	}
	p := &parsed{source: source, coordinate: self, constraint: strings.TrimSpace(spec.PlatformConstraint)}

	var errs error
	if spec.DeploymentArtifact != nil {
		d, err := dependencyCoordinate(spec.DeploymentArtifact.GroupID, spec.DeploymentArtifact.ArtifactID, spec.DeploymentArtifact.Version)
		if err != nil {
			errs = multierr.Append(errs, graph.Configf(self.Key().String(), "deploymentArtifact: %v", err))
		} else {
			p.deployment = &d
		}
	}
	for i, d := range spec.Dependencies {
		to, err := dependencyCoordinate(d.GroupID, d.ArtifactID, d.Version)
		if err != nil {
			errs = multierr.Append(errs, graph.Configf(self.Key().String(), "dependencies[%d]: %v", i, err))
			continue
		}
		patterns, err := parsePatterns(d.Exclusions)
		if err != nil {
			errs = multierr.Append(errs, graph.Configf(self.Key().String(), "dependencies[%d]: %v", i, err))
			continue
		}
		p.hard = append(p.hard, edge{to: to, scope: graph.Scope(d.Scope), exclusions: exclusion.NewSet(patterns...)})
	}
	for i, cd := range spec.ConditionalDependencies {
		to, err := dependencyCoordinate(cd.GroupID, cd.ArtifactID, "")
		if err != nil {
			errs = multierr.Append(errs, graph.Configf(self.Key().String(), "conditionalDependencies[%d]: %v", i, err))
			continue
		}
		when, err := keys(cd.When)
		if err != nil {
			errs = multierr.Append(errs, graph.Configf(self.Key().String(), "conditionalDependencies[%d].when: %v", i, err))
			continue
		}
		p.offers = append(p.offers, offer{to: to.Key(), scope: graph.Scope(cd.Scope), when: when})
	}
	cond, err := keys(spec.DependencyCondition)
	if err != nil {
		errs = multierr.Append(errs, graph.Configf(self.Key().String(), "dependencyCondition: %v", err))
	}
	p.condition = cond

	if errs != nil {
		return nil, errs
	}
	return p, nil
}

func dependencyCoordinate(group, name, version string) (graph.Coordinate, error) {
	group, name = strings.TrimSpace(group), strings.TrimSpace(name)
	if group == "" || name == "" {
		return graph.Coordinate{}, fmt.Errorf("groupId and artifactId are required")
	}
	if strings.Contains(group, ":") || strings.Contains(name, ":") {
		return graph.Coordinate{}, fmt.Errorf("invalid coordinate %s:%s", group, name)
	}
	return graph.Coordinate{Group: group, Name: name, Version: strings.TrimSpace(version)}, nil
}

func keys(refs []binderyv1alpha1.PackageRef) ([]graph.Key, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]graph.Key, 0, len(refs))
	for _, r := range refs {
		c, err := dependencyCoordinate(r.GroupID, r.ArtifactID, "")
		if err != nil {
			return nil, err
		}
		out = append(out, c.Key())
	}
	return out, nil
}

func parsePatterns(raw []string) ([]exclusion.Pattern, error) {
	out := make([]exclusion.Pattern, 0, len(raw))
	for _, r := range raw {
		p, err := exclusion.ParsePattern(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
