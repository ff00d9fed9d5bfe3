package graph

import (
	"fmt"
	"strings"
)

// Key identifies a package. Versions are resolved upstream, so group and name are enough.
type Key struct {
	Group string `json:"groupId"`
	Name  string `json:"artifactId"`
}

func (k Key) String() string {
	return k.Group + ":" + k.Name
}

// ParseKey parses "group:name".
func ParseKey(raw string) (Key, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Key{}, fmt.Errorf("graph: parse key %q: expected group:name", raw)
	}
	return Key{Group: parts[0], Name: parts[1]}, nil
}

// Coordinate is a package key plus its resolved version.
type Coordinate struct {
	Group   string `json:"groupId"`
	Name    string `json:"artifactId"`
	Version string `json:"version,omitempty"`
}

func (c Coordinate) Key() Key {
	return Key{Group: c.Group, Name: c.Name}
}

func (c Coordinate) String() string {
	if c.Version == "" {
		return c.Key().String()
	}
	return c.Group + ":" + c.Name + ":" + c.Version
}

// ParseCoordinate parses "group:name" or "group:name:version".
func ParseCoordinate(raw string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return Coordinate{}, fmt.Errorf("graph: parse coordinate %q: expected group:name[:version]", raw)
	}
	c := Coordinate{Group: parts[0], Name: parts[1]}
	if len(parts) == 3 {
		c.Version = parts[2]
	}
	return c, nil
}

// EdgeKind distinguishes always-required edges from conditional offers.
type EdgeKind string

const (
	EdgeHard        EdgeKind = "hard"
	EdgeConditional EdgeKind = "conditional"
)

// Scope is the classpath scope of an edge or of a resolved dependency.
type Scope string

const (
	ScopeCompile Scope = "compile"
	ScopeRuntime Scope = "runtime"
)

// NormalizeScope maps the empty scope to compile, the default for declared dependencies.
func NormalizeScope(s Scope) Scope {
	if strings.TrimSpace(string(s)) == "" {
		return ScopeCompile
	}
	return s
}

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	return s == ScopeCompile || s == ScopeRuntime
}

// AtLeast reports whether s is as strong as o (compile is stronger than runtime).
func (s Scope) AtLeast(o Scope) bool {
	return s == ScopeCompile || o == ScopeRuntime
}

// Propagate returns the scope a dependency inherits when reached through an edge of
// scope edge from a package included with scope parent.
func Propagate(parent, edge Scope) Scope {
	if NormalizeScope(parent) == ScopeRuntime {
		return ScopeRuntime
	}
	return NormalizeScope(edge)
}
