package store

import (
	"github.com/zeusync/timeline/internal/core/events/bus"
	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/observability/log"
	"github.com/zeusync/timeline/internal/core/schema/registry"
)

const (
	// EventComponentChanged is published when a write changes the resolved
	// value of a component at the written time.
	EventComponentChanged = "component.changed"

	eventSource = "timeline-store"
)

// ComponentChanged is the payload of EventComponentChanged.
type ComponentChanged struct {
	Entity        models.Entity
	Type          *registry.ComponentType
	Time          models.Time
	Previous      any
	PreviousState models.State
	Current       any
	CurrentState  models.State
}

// WantsChanges reports whether anyone listens for change events, so callers
// can skip building them.
func (s *Store) WantsChanges() bool {
	return s != nil && s.bus != nil && s.bus.HasSubscribers(EventComponentChanged)
}

// PublishChange delivers change to the event bus. Handler failures are logged
// and never fail the write that caused them.
func (s *Store) PublishChange(change ComponentChanged) {
	if !s.WantsChanges() {
		return
	}
	if err := s.bus.Publish(bus.NewEvent(EventComponentChanged, eventSource, change)); err != nil {
		s.log.Warn("component change handler failed",
			log.Stringer("entity", change.Entity),
			log.Stringer("type", change.Type),
			log.Stringer("time", change.Time),
			log.Error(err),
		)
	}
}
