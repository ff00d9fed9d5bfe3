package controllers

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	binderyv1alpha1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
)

const (
	AppConditionManifestsLoaded      = "ManifestsLoaded"
	AppConditionDependenciesResolved = "DependenciesResolved"

	PhaseResolved = "Resolved"
	PhaseError    = "Error"
	PhaseValid    = "Valid"
	PhaseInvalid  = "Invalid"
)

func setAppCondition(app *binderyv1alpha1.Application, condition metav1.Condition) {
	if app == nil {
		return
	}
	condition.ObservedGeneration = app.Generation
	meta.SetStatusCondition(&app.Status.Conditions, condition)
}

func manifestsLoaded(count int) metav1.Condition {
	return metav1.Condition{
		Type:    AppConditionManifestsLoaded,
		Status:  metav1.ConditionTrue,
		Reason:  "ManifestsLoaded",
		Message: fmt.Sprintf("%d ExtensionManifest(s) loaded", count),
	}
}

func resolvedMessage(plan resolver.Plan) string {
	runtime := 0
	for _, d := range plan.Dependencies {
		if d.OnRuntimeClasspath {
			runtime++
		}
	}
	msg := fmt.Sprintf("%d runtime dependencies resolved in %d pass(es)", runtime, plan.Passes)
	if n := len(plan.Diagnostics.Unsatisfied); n > 0 {
		msg += fmt.Sprintf(" (%d conditional dependencies not activated)", n)
	}
	return msg
}

// summarizeError keeps multi-error messages bounded on the status subresource.
func summarizeError(err error) string {
	if err == nil {
		return ""
	}
	lines := strings.Split(err.Error(), "; ")
	max := 4
	if len(lines) <= max {
		return strings.Join(lines, "; ")
	}
	return strings.Join(lines[:max], "; ") + fmt.Sprintf("; ...and %d more", len(lines)-max)
}
