// Package events defines event types and structures for intake session
// lifecycle notifications. Draft autosave is a subscriber to these events:
// every answer mutation and step transition is published here, and the
// persistence layer follows along.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/helixworks/intake/pkg/models"
)

type EventType string

// Topic carries all session lifecycle events.
const Topic = "intake.sessions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	AnswersUpdatedEvent   EventType = "session.answers.updated"
	StepAdvancedEvent     EventType = "session.step.advanced"
	StepRetreatedEvent    EventType = "session.step.retreated"
	SessionResetEvent     EventType = "session.reset"
	SolutionComputedEvent EventType = "session.solution.computed"
	IntakeCompletedEvent  EventType = "session.intake.completed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBase stamps a base event with a fresh ID and the current time.
func NewBase(eventType EventType, sessionID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
}

// AnswersUpdated signals that one step's fields were merged into the answer
// record. It carries the full post-merge snapshot so subscribers never need
// to reach back into the live session.
type AnswersUpdated struct {
	BaseEvent

	Step    models.StepName `json:"step"`
	Answers *models.Answers `json:"answers"`
}

func (e AnswersUpdated) GetType() EventType {
	return AnswersUpdatedEvent
}

// StepAdvanced signals a committed forward transition.
type StepAdvanced struct {
	BaseEvent

	From    models.StepName `json:"from"`
	To      models.StepName `json:"to"`
	Answers *models.Answers `json:"answers"`
}

func (e StepAdvanced) GetType() EventType {
	return StepAdvancedEvent
}

// StepRetreated signals a committed backward transition.
type StepRetreated struct {
	BaseEvent

	From    models.StepName `json:"from"`
	To      models.StepName `json:"to"`
	Answers *models.Answers `json:"answers"`
}

func (e StepRetreated) GetType() EventType {
	return StepRetreatedEvent
}

// SessionReset signals that the wizard was explicitly reset: answers cleared,
// index back to the first step, draft discarded.
type SessionReset struct {
	BaseEvent
}

func (e SessionReset) GetType() EventType {
	return SessionResetEvent
}

// SolutionComputed signals that the preview step derived and snapshotted a
// solution for the current answers.
type SolutionComputed struct {
	BaseEvent

	Solution *models.Solution `json:"solution"`
}

func (e SolutionComputed) GetType() EventType {
	return SolutionComputedEvent
}

// IntakeCompleted signals that a terminal action finished. Action is one of
// "self-serve", "expert" or "save-for-later".
type IntakeCompleted struct {
	BaseEvent

	Action    string `json:"action"`
	ProjectID string `json:"project_id,omitempty"`
}

func (e IntakeCompleted) GetType() EventType {
	return IntakeCompletedEvent
}
