// Package publish announces finished resolutions on the event bus.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
)

// Publisher is the minimal event-publishing seam.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
	Close() error
}

// ResolutionEvent summarizes one resolution run for downstream build stages.
type ResolutionEvent struct {
	RunID       string    `json:"runID"`
	Application string    `json:"application"`
	Namespace   string    `json:"namespace,omitempty"`
	Runtime     []string  `json:"runtime"`
	Deployment  []string  `json:"deployment"`
	Unsatisfied []string  `json:"unsatisfied,omitempty"`
	Warnings    int       `json:"warnings"`
	Passes      int       `json:"passes"`
	Time        time.Time `json:"time"`
}

// NewResolutionEvent builds the event for plan.
func NewResolutionEvent(namespace, application string, plan resolver.Plan, now time.Time) ResolutionEvent {
	ev := ResolutionEvent{
		RunID:       application,
		Application: application,
		Namespace:   namespace,
		Runtime:     []string{},
		Deployment:  []string{},
		Warnings:    len(plan.Diagnostics.Warnings),
		Passes:      plan.Passes,
		Time:        now.UTC(),
	}
	if plan.RunID != "" {
		ev.RunID = plan.RunID
	}
	for _, d := range plan.Dependencies {
		if d.OnRuntimeClasspath {
			ev.Runtime = append(ev.Runtime, d.Coordinate.String())
		}
		if d.OnDeploymentClasspath {
			ev.Deployment = append(ev.Deployment, d.Coordinate.String())
		}
	}
	for _, u := range plan.Diagnostics.Unsatisfied {
		ev.Unsatisfied = append(ev.Unsatisfied, u.Package.Key().String())
	}
	return ev
}

// PublishResolution encodes ev as JSON and publishes it on subject.
func PublishResolution(ctx context.Context, p Publisher, subject string, ev ResolutionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode resolution event: %w", err)
	}
	if err := p.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish resolution event on %s: %w", subject, err)
	}
	return nil
}
