package closure

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/bayleafwalker/bindery-resolver/internal/condition"
	"github.com/bayleafwalker/bindery-resolver/internal/exclusion"
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
)

func key(name string) graph.Key {
	return graph.Key{Group: "io.acme", Name: name}
}

func excl(names ...string) exclusion.Set {
	ps := make([]exclusion.Pattern, len(names))
	for i, n := range names {
		ps[i] = exclusion.Pattern{Group: "io.acme", Name: n}
	}
	return exclusion.NewSet(ps...)
}

// fixture describes a small graph by package name.
type fixture struct {
	t     *testing.T
	b     *graph.Builder
	reg   *condition.Registry
	names map[string]bool
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	f := &fixture{t: t, b: graph.NewBuilder(), reg: condition.NewRegistry(), names: map[string]bool{}}
	for _, n := range names {
		f.b.AddPackage(graph.Coordinate{Group: "io.acme", Name: n, Version: "1.0.0"}, nil)
		f.names[n] = true
	}
	return f
}

func (f *fixture) hard(from, to string, exclusions ...string) *fixture {
	f.b.AddEdge(key(from), key(to), graph.EdgeHard, graph.ScopeCompile, excl(exclusions...))
	return f
}

func (f *fixture) runtime(from, to string) *fixture {
	f.b.AddEdge(key(from), key(to), graph.EdgeHard, graph.ScopeRuntime, exclusion.Set{})
	return f
}

func (f *fixture) offers(from, to string) *fixture {
	f.b.AddEdge(key(from), key(to), graph.EdgeConditional, graph.ScopeCompile, exclusion.Set{})
	return f
}

func (f *fixture) when(pkg string, triggers ...string) *fixture {
	keys := make([]graph.Key, len(triggers))
	for i, tr := range triggers {
		keys[i] = key(tr)
	}
	require.NoError(f.t, f.reg.Register(key(pkg), keys, "test"))
	return f
}

func (f *fixture) graph() *graph.Graph {
	g, err := f.b.Build()
	require.NoError(f.t, err)
	return g
}

func roots(t *testing.T, g *graph.Graph, names ...string) []Root {
	t.Helper()
	out := make([]Root, len(names))
	for i, n := range names {
		id, ok := g.Lookup(key(n))
		require.True(t, ok, "root %s not in graph", n)
		out[i] = Root{ID: id}
	}
	return out
}

func names(g *graph.Graph, ids []graph.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Package(id).Coordinate.Name
	}
	return out
}

func originOf(t *testing.T, g *graph.Graph, s *State, name string) Origin {
	t.Helper()
	id, ok := g.Lookup(key(name))
	require.True(t, ok)
	return s.Origin(id)
}

func resolve(t *testing.T, g *graph.Graph, reg *condition.Registry, opts Options, rs []Root) *State {
	t.Helper()
	s := New(g, reg, opts)
	s.Seed(rs)
	require.NoError(t, s.Converge(0))
	return s
}

func TestClosure_SimpleChain(t *testing.T) {
	f := newFixture(t, "a", "b", "c").offers("a", "b").when("b", "c")
	g := f.graph()

	s := resolve(t, g, f.reg, Options{}, roots(t, g, "a", "c"))

	require.Equal(t, []string{"a", "b", "c"}, names(g, s.Included()))
	require.Equal(t, OriginActivation, originOf(t, g, s, "b"))
	require.Equal(t, OriginSeed, originOf(t, g, s, "c"))
	require.Empty(t, s.Unsatisfied())
}

func TestClosure_CascadingActivation(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "e", "f", "g").
		hard("b", "a").
		offers("a", "g").when("g", "c").
		hard("g", "f").
		offers("f", "e").when("e", "b")
	g := f.graph()

	var perPass [][]string
	s := resolve(t, g, f.reg, Options{OnPass: func(_ int, included []graph.ID) {
		perPass = append(perPass, names(g, included))
	}}, roots(t, g, "a", "b", "c"))

	require.Equal(t, []string{"a", "b", "c", "e", "f", "g"}, names(g, s.Included()))
	for _, n := range []string{"g", "f", "e"} {
		require.Equal(t, OriginActivation, originOf(t, g, s, n), n)
	}
	// seed, g+f, e, fixed point
	require.Equal(t, [][]string{
		{"a", "b", "c"},
		{"a", "b", "c", "f", "g"},
		{"a", "b", "c", "e", "f", "g"},
		{"a", "b", "c", "e", "f", "g"},
	}, perPass)
}

func TestClosure_CascadingActivationStopsAtMissingTrigger(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "e", "f", "g").
		hard("b", "a").
		offers("a", "g").when("g", "c").
		hard("g", "f").
		offers("f", "e").when("e", "b")
	g := f.graph()

	s := resolve(t, g, f.reg, Options{}, roots(t, g, "a", "c"))

	require.Equal(t, []string{"a", "c", "f", "g"}, names(g, s.Included()))
	unsatisfied := s.Unsatisfied()
	require.Len(t, unsatisfied, 1)
	require.Equal(t, "e", g.Package(unsatisfied[0].ID).Coordinate.Name)
	require.Equal(t, []string{"f"}, names(g, unsatisfied[0].OfferedBy))
	require.Equal(t, []graph.Key{key("b")}, unsatisfied[0].Missing)
}

func TestClosure_UnsatisfiableAndCyclicConditions(t *testing.T) {
	f := newFixture(t, "a", "b", "x", "y").
		offers("a", "b").when("b", "a", "d").
		offers("a", "x").when("x", "y").
		offers("a", "y").when("y", "x")
	g := f.graph()

	s := resolve(t, g, f.reg, Options{}, roots(t, g, "a"))

	require.Equal(t, []string{"a"}, names(g, s.Included()))

	unsatisfied := s.Unsatisfied()
	require.Len(t, unsatisfied, 3)
	require.Equal(t, "b", g.Package(unsatisfied[0].ID).Coordinate.Name)
	require.Equal(t, []graph.Key{key("d")}, unsatisfied[0].Missing)
	require.Equal(t, []string{"a"}, names(g, unsatisfied[0].OfferedBy))
	require.Equal(t, []graph.Key{key("y")}, unsatisfied[1].Missing)
	require.Equal(t, []graph.Key{key("x")}, unsatisfied[2].Missing)
}

func TestClosure_UnconditionedOfferActivates(t *testing.T) {
	f := newFixture(t, "a", "b", "c").offers("a", "b").hard("b", "c")
	g := f.graph()

	s := resolve(t, g, f.reg, Options{}, roots(t, g, "a"))

	require.Equal(t, []string{"a", "b", "c"}, names(g, s.Included()))
}

func TestClosure_Monotone(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "e", "f", "g").
		hard("b", "a").
		offers("a", "g").when("g", "c").
		hard("g", "f").
		offers("f", "e").when("e", "b")
	g := f.graph()

	var prev map[graph.ID]bool
	resolve(t, g, f.reg, Options{OnPass: func(pass int, included []graph.ID) {
		cur := make(map[graph.ID]bool, len(included))
		for _, id := range included {
			cur[id] = true
		}
		for id := range prev {
			if !cur[id] {
				t.Fatalf("pass %d dropped %s", pass, g.Package(id).Coordinate)
			}
		}
		prev = cur
	}}, roots(t, g, "a", "b", "c"))
}

// snapshot is everything a run exposes, keyed by package name.
type snapshot struct {
	Included []string
	Origin   map[string]string
	Scope    map[string]graph.Scope
	Required map[string][]string
}

func snap(g *graph.Graph, s *State) snapshot {
	out := snapshot{
		Included: names(g, s.Included()),
		Origin:   map[string]string{},
		Scope:    map[string]graph.Scope{},
		Required: map[string][]string{},
	}
	for _, id := range s.Included() {
		n := g.Package(id).Coordinate.Name
		out.Origin[n] = s.Origin(id).String()
		out.Scope[n] = s.Scope(id)
		out.Required[n] = names(g, s.Required(id))
	}
	return out
}

func TestClosure_OrderIndependent(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "d", "e", "f", "g", "h", "x").
		hard("b", "a").
		runtime("c", "d").
		offers("a", "g").when("g", "c").
		hard("g", "f").
		offers("f", "e").when("e", "b").
		offers("d", "h").
		hard("h", "g").
		hard("a", "x", "f").
		hard("x", "f")
	g := f.graph()
	rs := roots(t, g, "a", "b", "c")

	want := snap(g, resolve(t, g, f.reg, Options{}, rs))

	for seed := int64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		opts := Options{Order: func(ids []graph.ID) {
			rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		}}
		shuffledRoots := append([]Root(nil), rs...)
		rng.Shuffle(len(shuffledRoots), func(i, j int) {
			shuffledRoots[i], shuffledRoots[j] = shuffledRoots[j], shuffledRoots[i]
		})

		got := snap(g, resolve(t, g, f.reg, opts, shuffledRoots))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("seed %d: result depends on order (-want +got):\n%s", seed, diff)
		}
	}
}

func TestClosure_Idempotent(t *testing.T) {
	f := newFixture(t, "a", "b", "c").offers("a", "b").when("b", "c")
	g := f.graph()
	s := resolve(t, g, f.reg, Options{}, roots(t, g, "a", "c"))

	before := snap(g, s)
	passes := s.Passes()
	require.False(t, s.Step(), "a converged state must not change")
	require.NoError(t, s.Converge(0))
	require.Equal(t, passes+2, s.Passes())
	require.Equal(t, before, snap(g, s))
}

func TestClosure_ExclusionLocality(t *testing.T) {
	f := newFixture(t, "a", "b", "x", "y").
		hard("a", "x").
		hard("b", "x").
		hard("x", "y")
	g := f.graph()
	aID, _ := g.Lookup(key("a"))
	bID, _ := g.Lookup(key("b"))

	// Excluded through a, still reachable through b.
	s := resolve(t, g, f.reg, Options{}, []Root{{ID: aID, Exclusions: excl("x")}, {ID: bID}})
	require.Equal(t, []string{"a", "b", "x", "y"}, names(g, s.Included()))

	// Only path excluded: x and everything behind it are gone.
	s = resolve(t, g, f.reg, Options{}, []Root{{ID: aID, Exclusions: excl("x")}})
	require.Equal(t, []string{"a"}, names(g, s.Included()))
}

func TestClosure_ExclusionPropagatesTransitively(t *testing.T) {
	f := newFixture(t, "a", "m", "x", "c").
		hard("a", "m").
		hard("m", "x").
		offers("m", "c")
	g := f.graph()
	aID, _ := g.Lookup(key("a"))

	s := resolve(t, g, f.reg, Options{}, []Root{{ID: aID, Exclusions: excl("x", "c")}})

	require.Equal(t, []string{"a", "m"}, names(g, s.Included()))
	require.Empty(t, s.Unsatisfied(), "an excluded target is never offered")
}

func TestClosure_ActivatedPackageInheritsPathExclusions(t *testing.T) {
	f := newFixture(t, "a", "c", "x").
		offers("a", "c").
		hard("c", "x")
	g := f.graph()
	aID, _ := g.Lookup(key("a"))

	s := resolve(t, g, f.reg, Options{}, []Root{{ID: aID, Exclusions: excl("x")}})

	require.Equal(t, []string{"a", "c"}, names(g, s.Included()))
	require.Equal(t, OriginActivation, originOf(t, g, s, "c"))
}

func TestClosure_EdgeExclusions(t *testing.T) {
	f := newFixture(t, "a", "m", "x").
		hard("a", "m", "x").
		hard("m", "x")
	g := f.graph()

	s := resolve(t, g, f.reg, Options{}, roots(t, g, "a"))

	require.Equal(t, []string{"a", "m"}, names(g, s.Included()))
}

func TestClosure_ScopePropagation(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "d").
		runtime("a", "b").
		hard("b", "c").
		hard("a", "d").
		hard("d", "c")
	g := f.graph()

	s := resolve(t, g, f.reg, Options{}, roots(t, g, "a"))

	got := snap(g, s).Scope
	require.Equal(t, map[string]graph.Scope{
		"a": graph.ScopeCompile,
		"b": graph.ScopeRuntime,
		"c": graph.ScopeCompile,
		"d": graph.ScopeCompile,
	}, got)
}

func TestClosure_RequiredEdges(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "z").
		hard("a", "c").
		offers("a", "b").when("b", "c").
		offers("a", "z").when("z", "missing")
	g := f.graph()

	s := resolve(t, g, f.reg, Options{}, roots(t, g, "a"))

	aID, _ := g.Lookup(key("a"))
	require.Equal(t, []string{"b", "c"}, names(g, s.Required(aID)))
}

// A chain of conditional packages is re-walked each time a trigger activates a package
// that reaches its head under a new exclusion context. No wave adds more than one package,
// so the pass count far exceeds the package count.
func TestClosure_LateExclusionContextsConverge(t *testing.T) {
	chain := make([]string, 12)
	for i := range chain {
		chain[i] = fmt.Sprintf("p%d", i+1)
	}
	f := newFixture(t, append([]string{"r", "t", "t2", "y"}, chain...)...).
		hard("r", "p1", "y").
		hard("p12", "y").
		offers("r", "t").when("t", "p12").
		hard("t", "p1", "zz").
		offers("r", "t2").when("t2", "y").
		hard("t2", "p1", "ww")
	for i := 0; i+1 < len(chain); i++ {
		f.offers(chain[i], chain[i+1])
	}
	g := f.graph()

	s := New(g, f.reg, Options{})
	s.Seed(roots(t, g, "r"))
	require.NoError(t, s.Converge(0))

	require.Equal(t, g.Len(), s.Len(), "every package is reachable")
	require.Greater(t, s.Passes(), 2*g.Len()+2)
	require.Empty(t, s.Unsatisfied())
}

func TestClosure_PassBoundOverrun(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "e", "f", "g").
		hard("b", "a").
		offers("a", "g").when("g", "c").
		hard("g", "f").
		offers("f", "e").when("e", "b")
	g := f.graph()

	s := New(g, f.reg, Options{})
	s.Seed(roots(t, g, "a", "b", "c"))
	err := s.Converge(1)
	require.Error(t, err)
	require.True(t, errors.Is(err, graph.ErrConfiguration), "got %v", err)
}
