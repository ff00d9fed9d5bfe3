package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ExtensionManifest describes one package of the platform: its runtime artifact, its
// optional deployment artifact, and the dependencies it declares.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=ext
// +kubebuilder:printcolumn:name="Group",type=string,JSONPath=`.spec.artifact.groupId`
// +kubebuilder:printcolumn:name="Artifact",type=string,JSONPath=`.spec.artifact.artifactId`
// +kubebuilder:printcolumn:name="Version",type=string,JSONPath=`.spec.artifact.version`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type ExtensionManifest struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ExtensionManifestSpec   `json:"spec"`
	Status ExtensionManifestStatus `json:"status,omitempty"`
}

type ExtensionManifestSpec struct {
	Artifact ArtifactCoordinate `json:"artifact"`
	// DeploymentArtifact is the build-time counterpart. Its version defaults to the
	// runtime artifact's version.
	// +optional
	DeploymentArtifact *ArtifactCoordinate `json:"deploymentArtifact,omitempty"`

	// +optional
	Dependencies []Dependency `json:"dependencies,omitempty"`
	// +optional
	ConditionalDependencies []ConditionalDependency `json:"conditionalDependencies,omitempty"`

	// DependencyCondition is the set of packages that must all be present before this
	// package may be activated as a conditional dependency.
	// +optional
	DependencyCondition []PackageRef `json:"dependencyCondition,omitempty"`

	// PlatformConstraint is a semver constraint on the platform version, e.g. "^3.2".
	// +optional
	PlatformConstraint string `json:"platformConstraint,omitempty"`
}

// ConditionalDependency offers a package that is only included once its condition holds.
type ConditionalDependency struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	// +optional
	Scope DependencyScope `json:"scope,omitempty"`
	// When registers a condition for the offered package on its behalf. It must agree
	// with every other declaration of that package's condition.
	// +optional
	When []PackageRef `json:"when,omitempty"`
}

type ExtensionManifestStatus struct {
	Phase   string `json:"phase,omitempty"`
	Message string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true
type ExtensionManifestList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ExtensionManifest `json:"items"`
}

func init() {
	SchemeBuilder.Register(&ExtensionManifest{}, &ExtensionManifestList{})
}
