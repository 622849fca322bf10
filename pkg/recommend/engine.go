// Package recommend maps an answer record to a packaged solution by
// evaluating a fixed, ordered rule table. The engine is a pure function: no
// clock, no randomness, no hidden state. Replaying it over the same answers
// always yields an identical solution.
package recommend

import "github.com/helixworks/intake/pkg/models"

// rule pairs a predicate with the solution it selects. Rules are evaluated
// in order and the first match wins; ordering encodes priority where
// predicates overlap.
type rule struct {
	matches func(*models.Answers) bool
	build   func() models.Solution
}

// Engine evaluates the rule table against an answer record.
type Engine struct {
	rules    []rule
	fallback func() models.Solution
}

// NewEngine builds the engine with the fixed rule ordering:
//
//  1. communication overload pain point, or automate-tasks priority
//  2. finance/bookkeeping disorganization pain point
//  3. get-clients priority
//  4. fallback (including explore-options or no signal at all)
func NewEngine() *Engine {
	return &Engine{
		rules: []rule{
			{
				matches: func(a *models.Answers) bool {
					return a.HasPainPoint(models.PainPointClientCommunicationOverload) ||
						a.Priority == models.PriorityAutomateTasks
				},
				build: communicationHubSolution,
			},
			{
				matches: func(a *models.Answers) bool {
					return a.HasPainPoint(models.PainPointFinanceDisorganization)
				},
				build: transparentLedgerSolution,
			},
			{
				matches: func(a *models.Answers) bool {
					return a.Priority == models.PriorityGetClients
				},
				build: growthEngineSolution,
			},
		},
		fallback: insightsPlatformSolution,
	}
}

// Recommend returns the solution for the given answers. The returned value
// is freshly built on every call so callers can never mutate shared state.
func (e *Engine) Recommend(a *models.Answers) models.Solution {
	for _, r := range e.rules {
		if r.matches(a) {
			return r.build()
		}
	}

	return e.fallback()
}
