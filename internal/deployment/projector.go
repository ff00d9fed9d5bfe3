// Package deployment mirrors the runtime inclusion set into the deployment artifact graph
// consumed by the build pipeline.
package deployment

import (
	"sort"

	"github.com/bayleafwalker/bindery-resolver/internal/classpath"
	"github.com/bayleafwalker/bindery-resolver/internal/closure"
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
)

// Node is the deployment artifact of one included package.
type Node struct {
	Artifact graph.Coordinate `json:"artifact"`
	Owner    graph.Coordinate `json:"owner"`
	Scope    graph.Scope      `json:"scope"`
	// DependsOn lists the deployment artifacts of every package the owner directly
	// required, ordered by coordinate.
	DependsOn []graph.Coordinate `json:"dependsOn,omitempty"`
}

// Graph is the projected deployment graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
}

// Project emits a Node for every included package with a deployment artifact. Edges
// follow the hard edges traversed during closure and the conditional edges that
// activated; packages without a deployment artifact contribute no edge.
func Project(g *graph.Graph, s *closure.State) Graph {
	var out Graph
	for _, id := range s.Included() {
		pkg := g.Package(id)
		if !pkg.HasDeployment() {
			continue
		}
		n := Node{
			Artifact: *pkg.Deployment,
			Owner:    pkg.Coordinate,
			Scope:    classpath.DeploymentScope(s, id),
		}
		for _, dep := range s.Required(id) {
			if d := g.Package(dep); d.HasDeployment() {
				n.DependsOn = append(n.DependsOn, *d.Deployment)
			}
		}
		sort.Slice(n.DependsOn, func(i, j int) bool {
			return n.DependsOn[i].String() < n.DependsOn[j].String()
		})
		out.Nodes = append(out.Nodes, n)
	}
	sort.Slice(out.Nodes, func(i, j int) bool {
		return out.Nodes[i].Artifact.String() < out.Nodes[j].Artifact.String()
	})
	return out
}

// Lookup returns the node whose deployment artifact has key k.
func (dg Graph) Lookup(k graph.Key) (Node, bool) {
	for _, n := range dg.Nodes {
		if n.Artifact.Key() == k {
			return n, true
		}
	}
	return Node{}, false
}
