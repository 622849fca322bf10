// Package models defines the core domain models for the guided-intake session.
package models

// TeamSize buckets the size of the business's team.
type TeamSize string

const (
	TeamSizeSolo   TeamSize = "solo"
	TeamSizeSmall  TeamSize = "small"  // 2-5 people
	TeamSizeMedium TeamSize = "medium" // 6-20 people
	TeamSizeLarge  TeamSize = "large"  // 20+ people
)

// TriState is an answer that starts out unresolved and must be settled to yes or no.
type TriState string

const (
	TriStateUnknown TriState = "unknown"
	TriStateYes     TriState = "yes"
	TriStateNo      TriState = "no"
)

// Resolved reports whether the answer has been settled either way.
func (t TriState) Resolved() bool {
	return t == TriStateYes || t == TriStateNo
}

// PainPoint identifies one of the selectable business pain points.
type PainPoint string

const (
	PainPointClientCommunicationOverload PainPoint = "client-communication-overload"
	PainPointFinanceDisorganization      PainPoint = "finance-bookkeeping-disorganization"
	PainPointManualRepetitiveWork        PainPoint = "manual-repetitive-work"
	PainPointNoOnlinePresence            PainPoint = "no-online-presence"
	PainPointScatteredInformation        PainPoint = "scattered-information"
)

// Priority is the single top priority the user picks for their business.
type Priority string

const (
	PrioritySaveTime       Priority = "save-time"
	PriorityGetClients     Priority = "get-clients"
	PriorityImproveData    Priority = "improve-data"
	PriorityAutomateTasks  Priority = "automate-tasks"
	PriorityExploreOptions Priority = "explore-options"
	PriorityNoneYet        Priority = "none-yet"
)

// Answers is the accumulating record of everything the user has supplied
// during a session. It is the single source of truth: the recommendation
// engine, the draft store, and the terminal actions all read from it.
type Answers struct {
	Industry          string      `json:"industry"`
	TeamSize          TeamSize    `json:"team_size"`
	UsesDigitalTools  TriState    `json:"uses_digital_tools"`
	ToolsDescription  string      `json:"tools_description,omitempty"`
	PainPoints        []PainPoint `json:"pain_points"`
	WorkflowNarrative string      `json:"workflow_narrative"`
	Priority          Priority    `json:"priority"`
	SelectedAddOns    []string    `json:"selected_add_ons,omitempty"`

	// Solution is the snapshot taken when the preview step computes the
	// recommendation, so preview and the terminal actions see the same value.
	Solution *Solution `json:"solution,omitempty"`
}

// NewAnswers returns an empty answer record for a fresh session.
func NewAnswers() *Answers {
	return &Answers{
		UsesDigitalTools: TriStateUnknown,
		PainPoints:       []PainPoint{},
	}
}

// AnswersUpdate is one step's worth of field changes. Nil fields are left
// untouched; slices replace the previous selection as a whole.
type AnswersUpdate struct {
	Industry          *string
	TeamSize          *TeamSize
	UsesDigitalTools  *TriState
	ToolsDescription  *string
	PainPoints        []PainPoint
	WorkflowNarrative *string
	Priority          *Priority
	SelectedAddOns    []string
	Solution          *Solution
}

// Apply merges one step's fields into the record. The merge is atomic from
// the caller's point of view: either the whole update lands or none of it
// does, and no other mutation path exists.
func (a *Answers) Apply(u AnswersUpdate) {
	if u.Industry != nil {
		a.Industry = *u.Industry
	}

	if u.TeamSize != nil {
		a.TeamSize = *u.TeamSize
	}

	if u.UsesDigitalTools != nil {
		a.UsesDigitalTools = *u.UsesDigitalTools
	}

	if u.ToolsDescription != nil {
		a.ToolsDescription = *u.ToolsDescription
	}

	if u.PainPoints != nil {
		a.PainPoints = append([]PainPoint{}, u.PainPoints...)
	}

	if u.WorkflowNarrative != nil {
		a.WorkflowNarrative = *u.WorkflowNarrative
	}

	if u.Priority != nil {
		a.Priority = *u.Priority
	}

	if u.SelectedAddOns != nil {
		a.SelectedAddOns = append([]string{}, u.SelectedAddOns...)
	}

	if u.Solution != nil {
		a.Solution = u.Solution.Clone()
	}
}

// HasPainPoint reports whether the given pain point has been selected.
// Selection order is irrelevant.
func (a *Answers) HasPainPoint(p PainPoint) bool {
	for _, existing := range a.PainPoints {
		if existing == p {
			return true
		}
	}

	return false
}

// Reset clears the record back to its initial empty state.
func (a *Answers) Reset() {
	*a = *NewAnswers()
}

// Clone returns a deep copy, safe to hand to event payloads and stores
// without sharing mutable state with the live session.
func (a *Answers) Clone() *Answers {
	if a == nil {
		return nil
	}

	clone := *a
	clone.PainPoints = append([]PainPoint{}, a.PainPoints...)

	if a.SelectedAddOns != nil {
		clone.SelectedAddOns = append([]string{}, a.SelectedAddOns...)
	}

	clone.Solution = a.Solution.Clone()

	return &clone
}
