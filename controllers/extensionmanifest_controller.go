package controllers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	binderyv1alpha1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// indexArtifactKey indexes ExtensionManifests by "group:artifact".
const indexArtifactKey = ".spec.artifact.key"

// ExtensionManifestReconciler validates ExtensionManifests so that authors see problems on
// the manifest itself instead of on every Application that happens to use it.
//
// RBAC:
// +kubebuilder:rbac:groups=build.bindery.dev,resources=extensionmanifests,verbs=get;list;watch
// +kubebuilder:rbac:groups=build.bindery.dev,resources=extensionmanifests/status,verbs=get;update;patch
type ExtensionManifestReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
}

func (r *ExtensionManifestReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	binderyControllerReconcileTotal.WithLabelValues("ExtensionManifest").Inc()
	logger := log.FromContext(ctx).WithValues("controller", "ExtensionManifest", "namespace", req.Namespace, "extensionManifest", req.Name)

	var ext binderyv1alpha1.ExtensionManifest
	if err := r.Get(ctx, req.NamespacedName, &ext); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	phase, message := PhaseValid, fmt.Sprintf("%s is valid", artifactKey(&ext))
	if err := manifest.Validate(&ext); err != nil {
		phase, message = PhaseInvalid, summarizeError(err)
	} else {
		conflicts, err := r.conflictingManifests(ctx, &ext)
		if err != nil {
			logger.Error(err, "failed to list manifests declaring the same artifact")
			binderyControllerReconcileErrorTotal.WithLabelValues("ExtensionManifest").Inc()
			return ctrl.Result{}, err
		}
		if len(conflicts) > 0 {
			phase = PhaseInvalid
			message = fmt.Sprintf("%s is also declared with a different version by %s", artifactKey(&ext), strings.Join(conflicts, ", "))
		}
	}

	if ext.Status.Phase == phase && ext.Status.Message == message {
		return ctrl.Result{}, nil
	}

	before := ext.DeepCopy()
	ext.Status.Phase = phase
	ext.Status.Message = message
	if err := r.Status().Patch(ctx, &ext, client.MergeFrom(before)); err != nil {
		logger.Error(err, "failed to patch extensionmanifest status")
		binderyControllerReconcileErrorTotal.WithLabelValues("ExtensionManifest").Inc()
		return ctrl.Result{}, err
	}
	logger.Info("extension manifest checked", "phase", phase)
	if phase == PhaseInvalid {
		r.recordEventf(&ext, corev1.EventTypeWarning, "InvalidManifest", "%s", message)
	}
	return ctrl.Result{}, nil
}

// conflictingManifests returns the names of other manifests in the namespace that declare
// the same artifact with a different version.
func (r *ExtensionManifestReconciler) conflictingManifests(ctx context.Context, ext *binderyv1alpha1.ExtensionManifest) ([]string, error) {
	var same binderyv1alpha1.ExtensionManifestList
	if err := r.List(ctx, &same,
		client.InNamespace(ext.Namespace),
		client.MatchingFields{indexArtifactKey: artifactKey(ext)},
	); err != nil {
		return nil, err
	}

	var out []string
	for i := range same.Items {
		o := &same.Items[i]
		if o.Name == ext.Name {
			continue
		}
		if !semver.SameVersion(o.Spec.Artifact.Version, ext.Spec.Artifact.Version) {
			out = append(out, o.Name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func artifactKey(ext *binderyv1alpha1.ExtensionManifest) string {
	return strings.TrimSpace(ext.Spec.Artifact.GroupID) + ":" + strings.TrimSpace(ext.Spec.Artifact.ArtifactID)
}

func indexByArtifactKey(obj client.Object) []string {
	ext, ok := obj.(*binderyv1alpha1.ExtensionManifest)
	if !ok {
		return nil
	}
	if ext.Spec.Artifact.GroupID == "" || ext.Spec.Artifact.ArtifactID == "" {
		return nil
	}
	return []string{artifactKey(ext)}
}

func (r *ExtensionManifestReconciler) recordEventf(obj client.Object, eventType, reason, messageFmt string, args ...any) {
	if r.Recorder == nil || obj == nil {
		return
	}
	r.Recorder.Eventf(obj, eventType, reason, messageFmt, args...)
}

func (r *ExtensionManifestReconciler) SetupWithManager(mgr ctrl.Manager) error {
	if err := mgr.GetFieldIndexer().IndexField(context.Background(), &binderyv1alpha1.ExtensionManifest{}, indexArtifactKey, indexByArtifactKey); err != nil {
		return err
	}
	return ctrl.NewControllerManagedBy(mgr).
		For(&binderyv1alpha1.ExtensionManifest{}, builder.WithPredicates(predicate.GenerationChangedPredicate{})).
		Watches(
			&binderyv1alpha1.ExtensionManifest{},
			handler.EnqueueRequestsFromMapFunc(func(ctx context.Context, obj client.Object) []reconcile.Request {
				return peerManifestRequests(ctx, mgr.GetClient(), obj)
			}),
			builder.WithPredicates(predicate.GenerationChangedPredicate{}),
		).
		Complete(r)
}

// peerManifestRequests enqueues the other manifests declaring the same artifact, whose
// conflict status depends on obj. Updates map both the old and new object, so peers under
// a key the manifest moved away from are rechecked too.
func peerManifestRequests(ctx context.Context, c client.Client, obj client.Object) []reconcile.Request {
	ext, ok := obj.(*binderyv1alpha1.ExtensionManifest)
	if !ok {
		return nil
	}
	keys := indexByArtifactKey(ext)
	if len(keys) == 0 {
		return nil
	}

	var peers binderyv1alpha1.ExtensionManifestList
	if err := c.List(ctx, &peers,
		client.InNamespace(ext.Namespace),
		client.MatchingFields{indexArtifactKey: keys[0]},
	); err != nil {
		return nil
	}

	out := make([]reconcile.Request, 0, len(peers.Items))
	for i := range peers.Items {
		p := &peers.Items[i]
		if p.Name == ext.Name {
			continue
		}
		out = append(out, reconcile.Request{NamespacedName: types.NamespacedName{Namespace: p.Namespace, Name: p.Name}})
	}
	return out
}
