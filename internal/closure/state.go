package closure

import (
	"github.com/bayleafwalker/bindery-resolver/internal/condition"
	"github.com/bayleafwalker/bindery-resolver/internal/exclusion"
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
)

// Origin records the step that first included a package.
type Origin uint8

const (
	OriginNone Origin = iota
	OriginSeed
	OriginActivation
)

func (o Origin) String() string {
	switch o {
	case OriginSeed:
		return "seed"
	case OriginActivation:
		return "activation"
	default:
		return "none"
	}
}

// Root is a direct dependency of the application. Exclusions apply to everything reached
// through it, not to the root itself.
type Root struct {
	ID         graph.ID
	Scope      graph.Scope
	Exclusions exclusion.Set
}

// Options tunes a State. The zero value is ready to use.
type Options struct {
	// Order, when set, permutes the IDs processed by each offer and activation step.
	// The result must not depend on it; tests use it to prove that.
	Order func(ids []graph.ID)
	// OnPass observes the included set after every pass.
	OnPass func(pass int, included []graph.ID)
}

// visit is one way a package was reached: the exclusions accumulated along the path and
// the scope it propagated.
type visit struct {
	ctx   exclusion.Set
	scope graph.Scope
}

// dominates reports whether v makes w redundant: anything reachable under w is reachable
// under v with at least the same scope.
func (v visit) dominates(w visit) bool {
	return v.ctx.SubsetOf(w.ctx) && v.scope.AtLeast(w.scope)
}

type offer struct {
	from graph.ID
	visit
}

// State is the mutable working set of one resolution run. It is not safe for concurrent
// use and must not be reused across runs.
type State struct {
	g    *graph.Graph
	reg  *condition.Registry
	opts Options

	included []bool
	origin   []Origin
	scope    []graph.Scope
	visits   [][]visit
	count    int

	pending   map[graph.ID][]offer
	activated map[graph.ID][]offer
	required  []map[graph.ID]struct{}

	// growth counts recorded visits and offers; a pass that leaves it unchanged is a
	// fixed point.
	growth int
	passes int
}

// New returns an empty State over g. Conditions are read from reg.
func New(g *graph.Graph, reg *condition.Registry, opts Options) *State {
	n := g.Len()
	if reg == nil {
		reg = condition.NewRegistry()
	}
	return &State{
		g:         g,
		reg:       reg,
		opts:      opts,
		included:  make([]bool, n),
		origin:    make([]Origin, n),
		scope:     make([]graph.Scope, n),
		visits:    make([][]visit, n),
		pending:   make(map[graph.ID][]offer),
		activated: make(map[graph.ID][]offer),
		required:  make([]map[graph.ID]struct{}, n),
	}
}

// Len returns the number of included packages.
func (s *State) Len() int { return s.count }

// Passes returns the number of passes run so far.
func (s *State) Passes() int { return s.passes }

// IsIncluded reports whether id is in the included set.
func (s *State) IsIncluded(id graph.ID) bool { return s.included[id] }

// Origin returns the step that first included id.
func (s *State) Origin(id graph.ID) Origin { return s.origin[id] }

// Scope returns the strongest runtime scope id was reached with.
func (s *State) Scope(id graph.ID) graph.Scope { return s.scope[id] }

// Included returns the included IDs ordered by key.
func (s *State) Included() []graph.ID {
	out := make([]graph.ID, 0, s.count)
	for i, ok := range s.included {
		if ok {
			out = append(out, graph.ID(i))
		}
	}
	s.g.SortByKey(out)
	return out
}

// Required returns the packages id directly pulled in: traversed hard edges and
// activated conditional edges, ordered by key.
func (s *State) Required(id graph.ID) []graph.ID {
	out := make([]graph.ID, 0, len(s.required[id]))
	for to := range s.required[id] {
		out = append(out, to)
	}
	s.g.SortByKey(out)
	return out
}

// Unsatisfied is a conditionally offered package that never activated.
type Unsatisfied struct {
	ID        graph.ID
	OfferedBy []graph.ID
	Missing   []graph.Key
}

// Unsatisfied lists offers still pending whose target is not included, ordered by key.
func (s *State) Unsatisfied() []Unsatisfied {
	targets := make([]graph.ID, 0, len(s.pending))
	for id := range s.pending {
		if !s.included[id] {
			targets = append(targets, id)
		}
	}
	s.g.SortByKey(targets)

	out := make([]Unsatisfied, 0, len(targets))
	for _, id := range targets {
		by := make(map[graph.ID]struct{})
		for _, o := range s.pending[id] {
			by[o.from] = struct{}{}
		}
		offeredBy := make([]graph.ID, 0, len(by))
		for from := range by {
			offeredBy = append(offeredBy, from)
		}
		s.g.SortByKey(offeredBy)
		out = append(out, Unsatisfied{
			ID:        id,
			OfferedBy: offeredBy,
			Missing:   s.reg.Missing(s.g.Package(id).Key(), s.presentKey),
		})
	}
	return out
}

func (s *State) presentKey(k graph.Key) bool {
	id, ok := s.g.Lookup(k)
	return ok && s.included[id]
}

func (s *State) markRequired(from, to graph.ID) {
	if s.required[from] == nil {
		s.required[from] = make(map[graph.ID]struct{})
	}
	s.required[from][to] = struct{}{}
}

func (s *State) order(ids []graph.ID) []graph.ID {
	if s.opts.Order != nil {
		s.opts.Order(ids)
	}
	return ids
}
