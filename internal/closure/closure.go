// Package closure computes the included package set as a monotone fixed point.
//
// The seed is the hard-edge closure of the application's direct dependencies. Each pass
// then offers the targets of conditional edges leaving included packages and activates
// every offer whose condition is satisfied by the included set as it stood before the
// activation step began. Passes repeat until one records nothing new. Every productive
// pass records a visit or an offer no earlier record dominates, and a given (package,
// exclusion context, scope) is recorded at most once, so the run terminates. Offers that
// never activate, including those caught in condition cycles, are simply left out.
package closure

import (
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
)

// Seed includes every root and its hard-edge closure.
func (s *State) Seed(roots []Root) {
	for _, r := range roots {
		s.visit(r.ID, visit{ctx: r.Exclusions, scope: graph.NormalizeScope(r.Scope)}, OriginSeed)
	}
	if s.opts.OnPass != nil {
		s.opts.OnPass(0, s.Included())
	}
}

// Step runs one offer step and one activation step. It reports whether anything was
// recorded; false means the state is a fixed point.
func (s *State) Step() bool {
	s.passes++
	before := s.growth

	s.offerStep()
	s.activationStep()

	if s.opts.OnPass != nil {
		s.opts.OnPass(s.passes, s.Included())
	}
	return s.growth != before
}

// Converge runs passes until a fixed point. A positive maxPasses caps the run and
// exceeding it is a configuration error; zero or less runs to convergence.
//
// A late exclusion context can re-walk an already included chain without adding a
// package, so the pass count is not bounded by the number of packages.
func (s *State) Converge(maxPasses int) error {
	for i := 0; maxPasses <= 0 || i < maxPasses; i++ {
		if !s.Step() {
			return nil
		}
	}
	return graph.Configf("", "closure did not converge within %d passes", maxPasses)
}

// visit includes start and walks its hard edges. Exclusions accumulate along each path;
// a package reached again under a superset of exclusions and no stronger scope is not
// walked again.
func (s *State) visit(start graph.ID, v visit, origin Origin) {
	type item struct {
		id graph.ID
		visit
	}
	work := []item{{id: start, visit: v}}
	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]

		if !s.record(it.id, it.visit) {
			continue
		}
		if !s.included[it.id] {
			s.included[it.id] = true
			s.origin[it.id] = origin
			s.scope[it.id] = it.scope
			s.count++
		} else if !s.scope[it.id].AtLeast(it.scope) {
			s.scope[it.id] = it.scope
		}

		for _, e := range s.g.Edges(it.id) {
			if e.Kind != graph.EdgeHard {
				continue
			}
			to := s.g.Package(e.To).Coordinate
			if it.ctx.Excludes(to.Group, to.Name) {
				continue
			}
			s.markRequired(it.id, e.To)
			work = append(work, item{id: e.To, visit: visit{
				ctx:   it.ctx.Union(e.Exclusions),
				scope: graph.Propagate(it.scope, e.Scope),
			}})
		}
	}
}

// record stores v for id unless an existing visit dominates it.
func (s *State) record(id graph.ID, v visit) bool {
	kept := s.visits[id][:0]
	for _, existing := range s.visits[id] {
		if existing.dominates(v) {
			return false
		}
	}
	for _, existing := range s.visits[id] {
		if !v.dominates(existing) {
			kept = append(kept, existing)
		}
	}
	s.visits[id] = append(kept, v)
	s.growth++
	return true
}

// offerStep adds the target of every conditional edge leaving an included package to the
// pending set, unless the path that reached the source excludes it.
func (s *State) offerStep() {
	for _, from := range s.order(s.Included()) {
		visits := s.visits[from]
		for _, e := range s.g.Edges(from) {
			if e.Kind != graph.EdgeConditional {
				continue
			}
			to := s.g.Package(e.To).Coordinate
			for _, v := range visits {
				if v.ctx.Excludes(to.Group, to.Name) {
					continue
				}
				s.addOffer(e.To, offer{from: from, visit: visit{
					ctx:   v.ctx.Union(e.Exclusions),
					scope: graph.Propagate(v.scope, e.Scope),
				}})
			}
		}
	}
}

func (s *State) addOffer(target graph.ID, o offer) {
	for _, list := range [][]offer{s.pending[target], s.activated[target]} {
		for _, existing := range list {
			if existing.from == o.from && existing.dominates(o.visit) {
				return
			}
		}
	}
	s.pending[target] = append(s.pending[target], o)
	s.growth++
}

// activationStep activates every pending target whose condition holds against the
// included set as it was when the step began.
func (s *State) activationStep() {
	targets := make([]graph.ID, 0, len(s.pending))
	for id := range s.pending {
		targets = append(targets, id)
	}
	s.g.SortByKey(targets)

	var ready []graph.ID
	for _, id := range s.order(targets) {
		if s.satisfied(id) {
			ready = append(ready, id)
		}
	}

	for _, id := range ready {
		offers := s.pending[id]
		delete(s.pending, id)
		for _, o := range offers {
			s.markRequired(o.from, id)
			s.visit(id, o.visit, OriginActivation)
		}
		s.activated[id] = append(s.activated[id], offers...)
	}
}

// satisfied reports whether every trigger of id is included. A package that was offered
// but never given a condition is satisfied unconditionally.
func (s *State) satisfied(id graph.ID) bool {
	triggers, ok := s.reg.TriggersOf(s.g.Package(id).Key())
	if !ok {
		return true
	}
	for _, t := range triggers {
		if !s.presentKey(t) {
			return false
		}
	}
	return true
}
