package v1alpha1

// DependencyScope is the classpath scope of a declared dependency.
//
// +kubebuilder:validation:Enum=compile;runtime
type DependencyScope string

const (
	DependencyScopeCompile DependencyScope = "compile"
	DependencyScopeRuntime DependencyScope = "runtime"
)

// PackageRef names a package by group and artifact id.
type PackageRef struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
}

// ArtifactCoordinate is a PackageRef plus a resolved version.
type ArtifactCoordinate struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version,omitempty"`
}

// Dependency is a HARD dependency edge.
type Dependency struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	// Version, when set, lets the dependency stand for a plain library that has no
	// ExtensionManifest of its own.
	Version string `json:"version,omitempty"`
	// +optional
	Scope DependencyScope `json:"scope,omitempty"`
	// Exclusions are "group:artifact" patterns never pulled in through this edge.
	// Either half may be "*".
	// +optional
	Exclusions []string `json:"exclusions,omitempty"`
}
