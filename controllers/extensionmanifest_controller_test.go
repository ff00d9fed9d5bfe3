package controllers

import (
	"context"
	"strings"
	"testing"

	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
)

func reconcileExtension(t *testing.T, cl client.Client, name string) v1alpha1.ExtensionManifest {
	t.Helper()
	r := &ExtensionManifestReconciler{Client: cl, Scheme: cl.Scheme()}
	if _, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Namespace: testNamespace, Name: name}}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	var ext v1alpha1.ExtensionManifest
	if err := cl.Get(context.Background(), types.NamespacedName{Namespace: testNamespace, Name: name}, &ext); err != nil {
		t.Fatalf("get extensionmanifest: %v", err)
	}
	return ext
}

func manifestClient(t *testing.T, objs ...client.Object) client.Client {
	t.Helper()
	return fake.NewClientBuilder().
		WithScheme(newScheme(t)).
		WithObjects(objs...).
		WithStatusSubresource(&v1alpha1.ExtensionManifest{}).
		WithIndex(&v1alpha1.ExtensionManifest{}, indexArtifactKey, indexByArtifactKey).
		Build()
}

func TestExtensionManifestReconcile_Valid(t *testing.T) {
	rest := extension("rest", true, func(s *v1alpha1.ExtensionManifestSpec) {
		s.Dependencies = []v1alpha1.Dependency{{GroupID: "io.acme", ArtifactID: "core", Exclusions: []string{"io.acme:*"}}}
	})
	cl := manifestClient(t, rest)

	got := reconcileExtension(t, cl, "rest")
	if got.Status.Phase != PhaseValid {
		t.Fatalf("expected phase %q, got %q (%s)", PhaseValid, got.Status.Phase, got.Status.Message)
	}
}

func TestExtensionManifestReconcile_InvalidSpec(t *testing.T) {
	bad := extension("bad", false, func(s *v1alpha1.ExtensionManifestSpec) {
		s.Dependencies = []v1alpha1.Dependency{{GroupID: "io.acme", ArtifactID: "core", Exclusions: []string{"a:b:c"}}}
	})
	cl := manifestClient(t, bad)

	got := reconcileExtension(t, cl, "bad")
	if got.Status.Phase != PhaseInvalid {
		t.Fatalf("expected phase %q, got %q", PhaseInvalid, got.Status.Phase)
	}
	if !strings.Contains(got.Status.Message, "dependencies[0]") {
		t.Fatalf("expected message to point at the dependency, got %q", got.Status.Message)
	}
}

func TestExtensionManifestReconcile_ConflictingVersions(t *testing.T) {
	a := extension("rest", false, nil)
	b := extension("rest-fork", false, func(s *v1alpha1.ExtensionManifestSpec) {
		s.Artifact.ArtifactID = "rest"
		s.Artifact.Version = "2.0.0"
	})
	same := extension("rest-copy", false, func(s *v1alpha1.ExtensionManifestSpec) {
		s.Artifact.ArtifactID = "rest"
	})
	cl := manifestClient(t, a, b, same)

	got := reconcileExtension(t, cl, "rest")
	if got.Status.Phase != PhaseInvalid {
		t.Fatalf("expected phase %q, got %q", PhaseInvalid, got.Status.Phase)
	}
	if !strings.Contains(got.Status.Message, "rest-fork") || strings.Contains(got.Status.Message, "rest-copy") {
		t.Fatalf("expected only the differing manifest to be named, got %q", got.Status.Message)
	}
}

func TestExtensionManifestReconcile_PeerRecoversWhenConflictIsFixed(t *testing.T) {
	ctx := context.Background()
	a := extension("rest", false, nil)
	b := extension("rest-fork", false, func(s *v1alpha1.ExtensionManifestSpec) {
		s.Artifact.ArtifactID = "rest"
		s.Artifact.Version = "2.0.0"
	})
	unrelated := extension("core", false, nil)
	cl := manifestClient(t, a, b, unrelated)

	if got := reconcileExtension(t, cl, "rest"); got.Status.Phase != PhaseInvalid {
		t.Fatalf("expected rest to start invalid, got %q", got.Status.Phase)
	}
	if got := reconcileExtension(t, cl, "rest-fork"); got.Status.Phase != PhaseInvalid {
		t.Fatalf("expected rest-fork to start invalid, got %q", got.Status.Phase)
	}

	var fork v1alpha1.ExtensionManifest
	if err := cl.Get(ctx, types.NamespacedName{Namespace: testNamespace, Name: "rest-fork"}, &fork); err != nil {
		t.Fatalf("get rest-fork: %v", err)
	}
	fork.Spec.Artifact.Version = "1.0.0"
	if err := cl.Update(ctx, &fork); err != nil {
		t.Fatalf("update rest-fork: %v", err)
	}
	if got := reconcileExtension(t, cl, "rest-fork"); got.Status.Phase != PhaseValid {
		t.Fatalf("expected rest-fork to become valid, got %q (%s)", got.Status.Phase, got.Status.Message)
	}

	reqs := peerManifestRequests(ctx, cl, &fork)
	if len(reqs) != 1 || reqs[0].Name != "rest" {
		t.Fatalf("expected only rest to be re-enqueued, got %v", reqs)
	}
	if got := reconcileExtension(t, cl, reqs[0].Name); got.Status.Phase != PhaseValid {
		t.Fatalf("expected rest to recover, got %q (%s)", got.Status.Phase, got.Status.Message)
	}
}
