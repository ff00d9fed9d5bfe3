package resolver

import "context"

// Resolver computes the Plan for one application build.
//
// Resolution is a pure in-memory computation; ctx is accepted so callers can thread
// request-scoped values through, but Resolve never blocks on it.
type Resolver interface {
	Resolve(ctx context.Context, in Input) (Plan, error)
}
