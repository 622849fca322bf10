package models

// SolutionCategory is one of exactly three mutually exclusive solution families.
type SolutionCategory string

const (
	CategoryTypeA  SolutionCategory = "type_a"
	CategoryTypeB  SolutionCategory = "type_b"
	CategoryHybrid SolutionCategory = "hybrid"
)

// AddOn is an optional capability the user can toggle onto a solution after
// the recommendation is shown. RecommendedDefault is cosmetic: it marks the
// add-on as suggested but never forces inclusion.
type AddOn struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	RecommendedDefault bool   `json:"recommended_default"`
}

// Solution is the packaged recommendation derived from Answers. It is a pure
// function of the answer record and is never persisted on its own: replaying
// the engine over the same answers must reproduce it exactly.
type Solution struct {
	Name        string           `json:"name"`
	Category    SolutionCategory `json:"category"`
	Summary     []string         `json:"summary"`
	Description string           `json:"description"`
	AddOns      []AddOn          `json:"add_ons"`
}

// Clone returns a deep copy of the solution.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}

	clone := *s
	clone.Summary = append([]string{}, s.Summary...)
	clone.AddOns = append([]AddOn{}, s.AddOns...)

	return &clone
}
