// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the gradebook lifecycle.
const (
	// Roster events
	EventRosterImported EventType = "roster.imported"

	// Grading events
	EventGradesRecomputed EventType = "grades.recomputed"

	// Analytics events
	EventSummaryRebuilt EventType = "analytics.summary_rebuilt"
	EventAtRiskFlagged  EventType = "analytics.at_risk_flagged"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent creates a BaseEvent with the current UTC timestamp.
func NewBaseEvent(t EventType) BaseEvent {
	return BaseEvent{Type: t, Timestamp: time.Now().UTC()}
}

// RosterImportedEvent is published after a roster import completes.
type RosterImportedEvent struct {
	BaseEvent
	BatchID  string `json:"batch_id"`
	Imported int    `json:"imported"`
	Sections int    `json:"sections"`
}

// Payload implements Event interface.
func (e RosterImportedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"batch_id": e.BatchID,
		"imported": e.Imported,
		"sections": e.Sections,
	}
}

// NewRosterImportedEvent creates a RosterImportedEvent.
func NewRosterImportedEvent(batchID string, imported, sections int) RosterImportedEvent {
	return RosterImportedEvent{
		BaseEvent: NewBaseEvent(EventRosterImported),
		BatchID:   batchID,
		Imported:  imported,
		Sections:  sections,
	}
}

// GradesRecomputedEvent is published after derived grades are recomputed,
// typically because the grading policy changed.
type GradesRecomputedEvent struct {
	BaseEvent
	Records int `json:"records"`
	Graded  int `json:"graded"` // records with a known final grade
}

// Payload implements Event interface.
func (e GradesRecomputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"records": e.Records,
		"graded":  e.Graded,
	}
}

// NewGradesRecomputedEvent creates a GradesRecomputedEvent.
func NewGradesRecomputedEvent(records, graded int) GradesRecomputedEvent {
	return GradesRecomputedEvent{
		BaseEvent: NewBaseEvent(EventGradesRecomputed),
		Records:   records,
		Graded:    graded,
	}
}

// SummaryRebuiltEvent is published after the cohort summary snapshot is rebuilt.
type SummaryRebuiltEvent struct {
	BaseEvent
	SnapshotID string `json:"snapshot_id"`
	Students   int    `json:"students"`
}

// Payload implements Event interface.
func (e SummaryRebuiltEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"snapshot_id": e.SnapshotID,
		"students":    e.Students,
	}
}

// NewSummaryRebuiltEvent creates a SummaryRebuiltEvent.
func NewSummaryRebuiltEvent(snapshotID string, students int) SummaryRebuiltEvent {
	return SummaryRebuiltEvent{
		BaseEvent:  NewBaseEvent(EventSummaryRebuilt),
		SnapshotID: snapshotID,
		Students:   students,
	}
}

// AtRiskFlaggedEvent is published when the at-risk digest identifies students
// below the configured threshold.
type AtRiskFlaggedEvent struct {
	BaseEvent
	StudentIDs []string `json:"student_ids"`
	Threshold  float64  `json:"threshold"`
}

// Payload implements Event interface.
func (e AtRiskFlaggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_ids": e.StudentIDs,
		"threshold":   e.Threshold,
	}
}

// NewAtRiskFlaggedEvent creates an AtRiskFlaggedEvent.
func NewAtRiskFlaggedEvent(studentIDs []string, threshold float64) AtRiskFlaggedEvent {
	return AtRiskFlaggedEvent{
		BaseEvent:  NewBaseEvent(EventAtRiskFlagged),
		StudentIDs: studentIDs,
		Threshold:  threshold,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish delivers the event to all subscribed handlers.
	Publish(ctx context.Context, event Event) error
}

// EventBus is an EventPublisher that also supports subscriptions.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler)

	// SubscribeAll registers a handler for all event types.
	SubscribeAll(handler EventHandler)

	// Close shuts down the bus and waits for in-flight handlers.
	Close() error
}
