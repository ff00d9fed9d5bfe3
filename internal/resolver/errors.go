package resolver

import "errors"

var (
	// ErrNoGraph indicates Resolve was called without a package graph.
	ErrNoGraph = errors.New("resolver: input has no package graph")
)
