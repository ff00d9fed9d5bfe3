package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
	"sigs.k8s.io/yaml"

	binderyv1alpha1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/classpath"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
	"github.com/bayleafwalker/bindery-resolver/internal/publish"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
)

const (
	labelManagedBy   = "build.bindery.dev/managed-by"
	labelApplication = "build.bindery.dev/application"

	managedByApplication = "application-controller"

	keyDeploymentGraph     = "deployment-graph.yaml"
	keyRuntimeClasspath    = "runtime-classpath.txt"
	keyDeploymentClasspath = "deployment-classpath.txt"
)

// ApplicationReconciler resolves an Application against the ExtensionManifests of its
// namespace and hands the result to the build pipeline through a ConfigMap.
//
// RBAC:
// +kubebuilder:rbac:groups=build.bindery.dev,resources=applications,verbs=get;list;watch
// +kubebuilder:rbac:groups=build.bindery.dev,resources=applications/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=build.bindery.dev,resources=extensionmanifests,verbs=get;list;watch
// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch;create;update;patch
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch;update
type ApplicationReconciler struct {
	client.Client
	Scheme    *runtime.Scheme
	Resolver  resolver.Resolver
	Converter *manifest.Converter
	Recorder  record.EventRecorder

	// Options apply to every resolution run.
	Options resolver.Options
	// PlatformVersion is used when the Application does not name one.
	PlatformVersion string

	// Publisher, when set, receives a ResolutionEvent on Subject after each successful run.
	Publisher publish.Publisher
	Subject   string
}

func (r *ApplicationReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	binderyControllerReconcileTotal.WithLabelValues("Application").Inc()

	logger := log.FromContext(ctx).WithValues(
		"controller", "Application",
		"namespace", req.Namespace,
		"application", req.Name,
	)

	var app binderyv1alpha1.Application
	if err := r.Get(ctx, req.NamespacedName, &app); err != nil {
		if client.IgnoreNotFound(err) == nil {
			return ctrl.Result{}, nil
		}
		binderyControllerReconcileErrorTotal.WithLabelValues("Application").Inc()
		return ctrl.Result{}, err
	}
	logger.Info("reconciling application", "generation", app.Generation)

	if r.Resolver == nil {
		r.Resolver = resolver.NewDefault()
	}
	if r.Converter == nil {
		conv, err := manifest.NewConverter(manifest.DefaultCacheSize)
		if err != nil {
			return ctrl.Result{}, err
		}
		r.Converter = conv
	}

	// 1) Load every ExtensionManifest visible to the application.
	var exts binderyv1alpha1.ExtensionManifestList
	if err := r.List(ctx, &exts, client.InNamespace(req.Namespace)); err != nil {
		logger.Error(err, "failed to list extensionmanifests")
		binderyControllerReconcileErrorTotal.WithLabelValues("Application").Inc()
		return ctrl.Result{}, err
	}

	// 2) Convert. Invalid manifests are configuration errors; they are surfaced on the
	// status and the next manifest change re-triggers the reconcile.
	in, err := r.Converter.Input(&app, exts.Items)
	if err != nil {
		msg := summarizeError(err)
		if perr := r.patchAppStatus(ctx, &app, PhaseError, msg,
			metav1.Condition{
				Type:    AppConditionManifestsLoaded,
				Status:  metav1.ConditionFalse,
				Reason:  "InvalidManifest",
				Message: msg,
			},
			metav1.Condition{
				Type:    AppConditionDependenciesResolved,
				Status:  metav1.ConditionFalse,
				Reason:  "ManifestsNotReady",
				Message: "Cannot resolve until every manifest is valid",
			},
		); perr != nil {
			logger.Error(perr, "failed to patch application status")
		}
		logger.Info("manifest conversion failed; marking application error", "error", msg)
		r.recordEventf(&app, corev1.EventTypeWarning, "InvalidManifest", "%s", msg)
		resolverResolutionsTotal.WithLabelValues("invalid").Inc()
		return ctrl.Result{}, nil
	}
	in.Options = r.Options
	if in.PlatformVersion == "" {
		in.PlatformVersion = r.PlatformVersion
	}

	// 3) Resolve.
	start := time.Now()
	plan, err := r.Resolver.Resolve(ctx, in)
	resolverResolutionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		msg := summarizeError(err)
		if perr := r.patchAppStatus(ctx, &app, PhaseError, msg,
			manifestsLoaded(len(exts.Items)),
			metav1.Condition{
				Type:    AppConditionDependenciesResolved,
				Status:  metav1.ConditionFalse,
				Reason:  "ResolveError",
				Message: msg,
			},
		); perr != nil {
			logger.Error(perr, "failed to patch application status")
		}
		logger.Info("resolver returned error; marking application error", "error", msg)
		r.recordEventf(&app, corev1.EventTypeWarning, "ResolveError", "%s", msg)
		resolverResolutionsTotal.WithLabelValues("error").Inc()
		return ctrl.Result{}, nil
	}
	resolverResolutionsTotal.WithLabelValues("resolved").Inc()
	resolverPasses.Observe(float64(plan.Passes))
	resolverUnsatisfiedOffers.Set(float64(len(plan.Diagnostics.Unsatisfied)))

	logger.Info(
		"resolved application",
		"runID", plan.RunID,
		"manifestCount", len(exts.Items),
		"dependencyCount", len(plan.Dependencies),
		"unsatisfiedCount", len(plan.Diagnostics.Unsatisfied),
		"warningCount", len(plan.Diagnostics.Warnings),
		"passes", plan.Passes,
	)
	for _, u := range plan.Diagnostics.Unsatisfied {
		logger.V(1).Info("conditional dependency not activated", "package", u.Package.String(), "missing", u.MissingTriggers)
	}

	// 4) Hand the deployment graph to the build pipeline.
	cmName, op, err := r.applyOutputConfigMap(ctx, &app, plan)
	if err != nil {
		logger.Error(err, "failed to write deployment graph configmap", "configMap", cmName)
		r.recordEventf(&app, corev1.EventTypeWarning, "WriteOutputFailed", "Failed to write ConfigMap %q: %v", cmName, err)
		binderyControllerReconcileErrorTotal.WithLabelValues("Application").Inc()
		return ctrl.Result{}, err
	}
	if op != controllerutil.OperationResultNone {
		logger.Info("deployment graph written", "configMap", cmName, "operation", op)
	}

	// 5) Surface the plan on the status.
	prevPhase := app.Status.Phase
	message := resolvedMessage(plan)
	if perr := r.patchResolvedStatus(ctx, &app, plan, message, len(exts.Items)); perr != nil {
		logger.Error(perr, "failed to patch application status")
		binderyControllerReconcileErrorTotal.WithLabelValues("Application").Inc()
		return ctrl.Result{}, perr
	}
	if prevPhase != PhaseResolved {
		// Emit only on transitions.
		r.recordEventf(&app, corev1.EventTypeNormal, "DependenciesResolved", "%s", message)
		for _, w := range plan.Diagnostics.Warnings {
			r.recordEventf(&app, corev1.EventTypeWarning, string(w.Kind), "%s: %s", w.Package, w.Message)
		}
	}

	// 6) Announce the run. Publishing is best effort; the status already carries the plan.
	if r.Publisher != nil {
		ev := publish.NewResolutionEvent(app.Namespace, app.Name, plan, time.Now())
		if err := publish.PublishResolution(ctx, r.Publisher, r.subject(), ev); err != nil {
			logger.Error(err, "failed to publish resolution event")
		}
	}

	return ctrl.Result{}, nil
}

func (r *ApplicationReconciler) subject() string {
	if r.Subject == "" {
		return "bindery.resolution"
	}
	return r.Subject
}

func (r *ApplicationReconciler) recordEventf(obj client.Object, eventType, reason, messageFmt string, args ...any) {
	if r.Recorder == nil || obj == nil {
		return
	}
	r.Recorder.Eventf(obj, eventType, reason, messageFmt, args...)
}

func (r *ApplicationReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&binderyv1alpha1.Application{}, builder.WithPredicates(predicate.GenerationChangedPredicate{})).
		Owns(&corev1.ConfigMap{}).
		Watches(
			&binderyv1alpha1.ExtensionManifest{},
			enqueueApplicationsForManifest(mgr.GetClient()),
			builder.WithPredicates(predicate.GenerationChangedPredicate{}),
		).
		Complete(r)
}

// enqueueApplicationsForManifest enqueues every Application in the manifest's namespace.
// Any manifest may be reached transitively, so there is no narrower lookup.
func enqueueApplicationsForManifest(c client.Client) handler.EventHandler {
	return handler.EnqueueRequestsFromMapFunc(func(ctx context.Context, obj client.Object) []reconcile.Request {
		return applicationRequests(ctx, c, obj)
	})
}

func applicationRequests(ctx context.Context, c client.Client, obj client.Object) []reconcile.Request {
	if _, ok := obj.(*binderyv1alpha1.ExtensionManifest); !ok {
		return nil
	}

	var apps binderyv1alpha1.ApplicationList
	if err := c.List(ctx, &apps, client.InNamespace(obj.GetNamespace())); err != nil {
		return nil
	}

	out := make([]reconcile.Request, 0, len(apps.Items))
	for i := range apps.Items {
		a := &apps.Items[i]
		out = append(out, reconcile.Request{NamespacedName: types.NamespacedName{Namespace: a.Namespace, Name: a.Name}})
	}
	return out
}

func outputConfigMapName(app *binderyv1alpha1.Application) string {
	if app.Spec.OutputConfigMap != "" {
		return app.Spec.OutputConfigMap
	}
	return app.Name + "-deployment"
}

func (r *ApplicationReconciler) applyOutputConfigMap(ctx context.Context, app *binderyv1alpha1.Application, plan resolver.Plan) (string, controllerutil.OperationResult, error) {
	name := outputConfigMapName(app)

	graphYAML, err := yaml.Marshal(plan.DeploymentGraph)
	if err != nil {
		return name, controllerutil.OperationResultNone, fmt.Errorf("encode deployment graph: %w", err)
	}

	// Data depends only on the plan content, never on the run ID, so an unchanged
	// resolution leaves the owned ConfigMap untouched.
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: app.Namespace,
		},
	}
	op, err := controllerutil.CreateOrUpdate(ctx, r.Client, cm, func() error {
		if cm.Labels == nil {
			cm.Labels = map[string]string{}
		}
		cm.Labels[labelManagedBy] = managedByApplication
		cm.Labels[labelApplication] = app.Name

		cm.Data = map[string]string{
			keyDeploymentGraph:     string(graphYAML),
			keyRuntimeClasspath:    classpathText(classpath.RuntimeClasspath(plan.Dependencies)),
			keyDeploymentClasspath: classpathText(classpath.DeploymentClasspath(plan.Dependencies)),
		}
		return controllerutil.SetControllerReference(app, cm, r.Scheme)
	})
	return name, op, err
}

// classpathText renders one coordinate per line.
func classpathText(deps []classpath.ResolvedDependency) string {
	var b strings.Builder
	for _, d := range deps {
		b.WriteString(d.Coordinate.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *ApplicationReconciler) patchAppStatus(ctx context.Context, app *binderyv1alpha1.Application, phase, message string, conds ...metav1.Condition) error {
	before := app.DeepCopy()
	app.Status.ObservedGeneration = app.Generation
	app.Status.Phase = phase
	app.Status.Message = message
	for _, c := range conds {
		setAppCondition(app, c)
	}
	return r.Status().Patch(ctx, app, client.MergeFrom(before))
}

func (r *ApplicationReconciler) patchResolvedStatus(ctx context.Context, app *binderyv1alpha1.Application, plan resolver.Plan, message string, manifestCount int) error {
	before := app.DeepCopy()
	app.Status.ObservedGeneration = app.Generation
	app.Status.Phase = PhaseResolved
	app.Status.Message = message
	app.Status.RunID = plan.RunID
	app.Status.Resolved = resolvedArtifacts(plan)
	app.Status.Unsatisfied = unsatisfiedOffers(plan)
	app.Status.Warnings = warningMessages(plan)
	setAppCondition(app, manifestsLoaded(manifestCount))
	setAppCondition(app, metav1.Condition{
		Type:    AppConditionDependenciesResolved,
		Status:  metav1.ConditionTrue,
		Reason:  "Resolved",
		Message: message,
	})
	return r.Status().Patch(ctx, app, client.MergeFrom(before))
}

func resolvedArtifacts(plan resolver.Plan) []binderyv1alpha1.ResolvedArtifact {
	if len(plan.Dependencies) == 0 {
		return nil
	}
	out := make([]binderyv1alpha1.ResolvedArtifact, 0, len(plan.Dependencies))
	for _, d := range plan.Dependencies {
		out = append(out, binderyv1alpha1.ResolvedArtifact{
			Artifact:        d.Coordinate.String(),
			Kind:            string(d.Kind),
			Runtime:         d.OnRuntimeClasspath,
			Deployment:      d.OnDeploymentClasspath,
			DeploymentScope: binderyv1alpha1.DependencyScope(d.DeploymentScope),
		})
	}
	return out
}

func unsatisfiedOffers(plan resolver.Plan) []binderyv1alpha1.UnsatisfiedOffer {
	if len(plan.Diagnostics.Unsatisfied) == 0 {
		return nil
	}
	out := make([]binderyv1alpha1.UnsatisfiedOffer, 0, len(plan.Diagnostics.Unsatisfied))
	for _, u := range plan.Diagnostics.Unsatisfied {
		o := binderyv1alpha1.UnsatisfiedOffer{Package: u.Package.Key().String()}
		for _, by := range u.OfferedBy {
			o.OfferedBy = append(o.OfferedBy, by.Key().String())
		}
		for _, m := range u.MissingTriggers {
			o.Missing = append(o.Missing, m.String())
		}
		out = append(out, o)
	}
	return out
}

func warningMessages(plan resolver.Plan) []string {
	if len(plan.Diagnostics.Warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(plan.Diagnostics.Warnings))
	for _, w := range plan.Diagnostics.Warnings {
		out = append(out, fmt.Sprintf("%s %s: %s", w.Kind, w.Package, w.Message))
	}
	return out
}
