package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Application is a build of an application on the platform. The controller resolves its
// dependencies against the ExtensionManifests of the same namespace.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=app
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Platform",type=string,JSONPath=`.spec.platformVersion`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type Application struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ApplicationSpec   `json:"spec"`
	Status ApplicationStatus `json:"status,omitempty"`
}

type ApplicationSpec struct {
	// +optional
	PlatformVersion string `json:"platformVersion,omitempty"`
	// Dependencies are the application's direct dependencies. Exclusions declared here
	// apply to everything reached through that dependency.
	Dependencies []Dependency `json:"dependencies"`
	// OutputConfigMap names the ConfigMap the deployment graph is written to. Defaults to
	// "<name>-deployment".
	// +optional
	OutputConfigMap string `json:"outputConfigMap,omitempty"`
}

// ResolvedArtifact is one entry of the resolved classpath.
type ResolvedArtifact struct {
	Artifact        string          `json:"artifact"`
	Kind            string          `json:"kind"`
	Runtime         bool            `json:"runtime"`
	Deployment      bool            `json:"deployment"`
	DeploymentScope DependencyScope `json:"deploymentScope"`
}

// UnsatisfiedOffer is a conditional dependency whose condition never held.
type UnsatisfiedOffer struct {
	Package   string   `json:"package"`
	OfferedBy []string `json:"offeredBy,omitempty"`
	Missing   []string `json:"missing,omitempty"`
}

type ApplicationStatus struct {
	Phase              string `json:"phase,omitempty"`
	Message            string `json:"message,omitempty"`
	ObservedGeneration int64  `json:"observedGeneration,omitempty"`
	RunID              string `json:"runID,omitempty"`

	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
	// +optional
	Resolved []ResolvedArtifact `json:"resolved,omitempty"`
	// +optional
	Unsatisfied []UnsatisfiedOffer `json:"unsatisfied,omitempty"`
	// +optional
	Warnings []string `json:"warnings,omitempty"`
}

// +kubebuilder:object:root=true
type ApplicationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Application `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Application{}, &ApplicationList{})
}
