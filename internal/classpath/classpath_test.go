package classpath

import (
	"testing"

	"github.com/bayleafwalker/bindery-resolver/internal/closure"
	"github.com/bayleafwalker/bindery-resolver/internal/condition"
	"github.com/bayleafwalker/bindery-resolver/internal/exclusion"
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
)

func key(name string) graph.Key {
	return graph.Key{Group: "io.acme", Name: name}
}

// chain builds: a offers b, b requires {c}, c is seeded. b and c ship deployment artifacts.
func chain(t *testing.T) (*graph.Graph, *closure.State) {
	t.Helper()
	b := graph.NewBuilder()
	a := b.AddPackage(graph.Coordinate{Group: "io.acme", Name: "a", Version: "1.0.0"}, nil)
	b.AddPackage(graph.Coordinate{Group: "io.acme", Name: "b", Version: "1.0.0"},
		&graph.Coordinate{Group: "io.acme", Name: "b-deployment"})
	c := b.AddPackage(graph.Coordinate{Group: "io.acme", Name: "c", Version: "2.0.0"},
		&graph.Coordinate{Group: "io.acme", Name: "c-deployment"})
	b.AddEdge(key("a"), key("b"), graph.EdgeConditional, graph.ScopeCompile, exclusion.Set{})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	reg := condition.NewRegistry()
	if err := reg.Register(key("b"), []graph.Key{key("c")}, "test"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s := closure.New(g, reg, closure.Options{})
	s.Seed([]closure.Root{{ID: a}, {ID: c}})
	if err := s.Converge(0); err != nil {
		t.Fatalf("Converge: %v", err)
	}
	return g, s
}

func TestAssign_DeploymentScopeFollowsOrigin(t *testing.T) {
	g, s := chain(t)
	deps := Assign(g, s)

	byCoord := map[string]ResolvedDependency{}
	for _, d := range deps {
		byCoord[d.Coordinate.String()] = d
	}

	if got := byCoord["io.acme:b:1.0.0"].DeploymentScope; got != graph.ScopeRuntime {
		t.Fatalf("expected b runtime, got %q", got)
	}
	if got := byCoord["io.acme:c:2.0.0"].DeploymentScope; got != graph.ScopeCompile {
		t.Fatalf("expected c compile, got %q", got)
	}
	if got := byCoord["io.acme:a:1.0.0"].DeploymentScope; got != graph.ScopeCompile {
		t.Fatalf("expected a compile, got %q", got)
	}

	dep, ok := byCoord["io.acme:c-deployment:2.0.0"]
	if !ok {
		t.Fatalf("expected c deployment artifact with inherited version, got %v", deps)
	}
	if dep.OnRuntimeClasspath || !dep.OnDeploymentClasspath {
		t.Fatalf("deployment artifact must be deployment-only, got %+v", dep)
	}
	if dep.DeploymentScope != graph.ScopeCompile || dep.Owner.Name != "c" {
		t.Fatalf("deployment artifact must inherit its owner's scope, got %+v", dep)
	}
}

func TestAssign_SortedAndPartitioned(t *testing.T) {
	g, s := chain(t)
	deps := Assign(g, s)

	want := []string{
		"io.acme:a:1.0.0",
		"io.acme:b-deployment:1.0.0",
		"io.acme:b:1.0.0",
		"io.acme:c-deployment:2.0.0",
		"io.acme:c:2.0.0",
	}
	if len(deps) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(deps))
	}
	for i, d := range deps {
		if d.Coordinate.String() != want[i] {
			t.Fatalf("record %d: expected %s, got %s", i, want[i], d.Coordinate)
		}
	}

	if n := len(RuntimeClasspath(deps)); n != 3 {
		t.Fatalf("expected 3 runtime entries, got %d", n)
	}
	if n := len(DeploymentClasspath(deps)); n != 5 {
		t.Fatalf("expected 5 deployment entries, got %d", n)
	}
}
