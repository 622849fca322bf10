// Package catalog defines the fixed, ordered list of wizard steps and the
// gate predicate that must hold before forward navigation from each one.
package catalog

import (
	"unicode/utf8"

	"github.com/helixworks/intake/pkg/models"
)

// DefaultNarrativeMinLen is the canonical minimum length for the workflow
// narrative. The gate requires strictly more characters than this. A stricter
// embedding (the dashboard variant uses 50) can override it per catalog
// instance instead of forking the gate logic.
const DefaultNarrativeMinLen = 20

// GateFunc is a pure predicate over the current answers. It never mutates
// and never errors: a failing gate is a silent no-op on advance.
type GateFunc func(*models.Answers) bool

// StepDefinition is one entry in the ordered step sequence.
type StepDefinition struct {
	Index      int
	Name       models.StepName
	CanAdvance GateFunc
}

// Catalog holds the fixed step sequence. Step identity is positional; the
// symbolic name exists for persistence and display.
type Catalog struct {
	steps            []StepDefinition
	narrativeMinimum int
}

// Option configures a catalog instance.
type Option func(*Catalog)

// WithNarrativeMinLen overrides the minimum workflow-narrative length.
func WithNarrativeMinLen(n int) Option {
	return func(c *Catalog) {
		c.narrativeMinimum = n
	}
}

// New builds the step catalog in its fixed order:
// context -> pain-points -> workflow -> priority -> preview -> exit.
func New(opts ...Option) *Catalog {
	c := &Catalog{narrativeMinimum: DefaultNarrativeMinLen}

	for _, opt := range opts {
		opt(c)
	}

	c.steps = []StepDefinition{
		{Name: models.StepContext, CanAdvance: contextGate},
		{Name: models.StepPainPoints, CanAdvance: painPointsGate},
		{Name: models.StepWorkflow, CanAdvance: c.workflowGate},
		{Name: models.StepPriority, CanAdvance: priorityGate},
		{Name: models.StepPreview, CanAdvance: alwaysPassable},
		{Name: models.StepExit, CanAdvance: nil}, // terminal, no forward gate
	}

	for i := range c.steps {
		c.steps[i].Index = i
	}

	return c
}

// Len returns the total number of steps.
func (c *Catalog) Len() int {
	return len(c.steps)
}

// StepAt returns the step definition at the given index.
func (c *Catalog) StepAt(index int) (StepDefinition, bool) {
	if index < 0 || index >= len(c.steps) {
		return StepDefinition{}, false
	}

	return c.steps[index], true
}

// IndexOf returns the index of the named step, or -1 if unknown.
func (c *Catalog) IndexOf(name models.StepName) int {
	for _, step := range c.steps {
		if step.Name == name {
			return step.Index
		}
	}

	return -1
}

// NarrativeMinLen returns the configured narrative threshold.
func (c *Catalog) NarrativeMinLen() int {
	return c.narrativeMinimum
}

// contextGate requires the business context to be complete: an industry, a
// team-size bucket, and the digital-tools question settled either way.
func contextGate(a *models.Answers) bool {
	return a.Industry != "" && a.TeamSize != "" && a.UsesDigitalTools.Resolved()
}

// painPointsGate requires at least one selected pain point.
func painPointsGate(a *models.Answers) bool {
	return len(a.PainPoints) > 0
}

// workflowGate requires the narrative to be strictly longer than the
// configured minimum.
func (c *Catalog) workflowGate(a *models.Answers) bool {
	return utf8.RuneCountInString(a.WorkflowNarrative) > c.narrativeMinimum
}

// priorityGate requires exactly one chosen priority.
func priorityGate(a *models.Answers) bool {
	return a.Priority != ""
}

// alwaysPassable gates the preview step, which exists only to compute and
// display the solution before committing to an exit action.
func alwaysPassable(_ *models.Answers) bool {
	return true
}
