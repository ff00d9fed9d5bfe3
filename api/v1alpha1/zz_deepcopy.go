package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *Dependency) DeepCopyInto(out *Dependency) {
	*out = *in
	if in.Exclusions != nil {
		out.Exclusions = make([]string, len(in.Exclusions))
		copy(out.Exclusions, in.Exclusions)
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ConditionalDependency) DeepCopyInto(out *ConditionalDependency) {
	*out = *in
	if in.When != nil {
		out.When = make([]PackageRef, len(in.When))
		copy(out.When, in.When)
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ExtensionManifest) DeepCopyInto(out *ExtensionManifest) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	out.Status = in.Status
}

// DeepCopy copies the receiver, creating a new ExtensionManifest.
func (in *ExtensionManifest) DeepCopy() *ExtensionManifest {
	if in == nil {
		return nil
	}
	out := new(ExtensionManifest)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *ExtensionManifest) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ExtensionManifestSpec) DeepCopyInto(out *ExtensionManifestSpec) {
	*out = *in
	if in.DeploymentArtifact != nil {
		in, out := &in.DeploymentArtifact, &out.DeploymentArtifact
		*out = new(ArtifactCoordinate)
		**out = **in
	}
	if in.Dependencies != nil {
		out.Dependencies = make([]Dependency, len(in.Dependencies))
		for i := range in.Dependencies {
			in.Dependencies[i].DeepCopyInto(&out.Dependencies[i])
		}
	}
	if in.ConditionalDependencies != nil {
		out.ConditionalDependencies = make([]ConditionalDependency, len(in.ConditionalDependencies))
		for i := range in.ConditionalDependencies {
			in.ConditionalDependencies[i].DeepCopyInto(&out.ConditionalDependencies[i])
		}
	}
	if in.DependencyCondition != nil {
		out.DependencyCondition = make([]PackageRef, len(in.DependencyCondition))
		copy(out.DependencyCondition, in.DependencyCondition)
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ExtensionManifestList) DeepCopyInto(out *ExtensionManifestList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]ExtensionManifest, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy copies the receiver, creating a new ExtensionManifestList.
func (in *ExtensionManifestList) DeepCopy() *ExtensionManifestList {
	if in == nil {
		return nil
	}
	out := new(ExtensionManifestList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *ExtensionManifestList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *Application) DeepCopyInto(out *Application) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy copies the receiver, creating a new Application.
func (in *Application) DeepCopy() *Application {
	if in == nil {
		return nil
	}
	out := new(Application)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *Application) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ApplicationSpec) DeepCopyInto(out *ApplicationSpec) {
	*out = *in
	if in.Dependencies != nil {
		out.Dependencies = make([]Dependency, len(in.Dependencies))
		for i := range in.Dependencies {
			in.Dependencies[i].DeepCopyInto(&out.Dependencies[i])
		}
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *UnsatisfiedOffer) DeepCopyInto(out *UnsatisfiedOffer) {
	*out = *in
	if in.OfferedBy != nil {
		out.OfferedBy = make([]string, len(in.OfferedBy))
		copy(out.OfferedBy, in.OfferedBy)
	}
	if in.Missing != nil {
		out.Missing = make([]string, len(in.Missing))
		copy(out.Missing, in.Missing)
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ApplicationStatus) DeepCopyInto(out *ApplicationStatus) {
	*out = *in
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
	if in.Resolved != nil {
		out.Resolved = make([]ResolvedArtifact, len(in.Resolved))
		copy(out.Resolved, in.Resolved)
	}
	if in.Unsatisfied != nil {
		out.Unsatisfied = make([]UnsatisfiedOffer, len(in.Unsatisfied))
		for i := range in.Unsatisfied {
			in.Unsatisfied[i].DeepCopyInto(&out.Unsatisfied[i])
		}
	}
	if in.Warnings != nil {
		out.Warnings = make([]string, len(in.Warnings))
		copy(out.Warnings, in.Warnings)
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ApplicationList) DeepCopyInto(out *ApplicationList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]Application, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy copies the receiver, creating a new ApplicationList.
func (in *ApplicationList) DeepCopy() *ApplicationList {
	if in == nil {
		return nil
	}
	out := new(ApplicationList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *ApplicationList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}
