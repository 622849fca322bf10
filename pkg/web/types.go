// Package web provides HTTP request and response types for the intake API.
package web

import (
	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/services"
)

// UpdateAnswersRequest represents the request body for merging one step's
// fields into the answer record. All fields are optional to support partial
// updates; slices replace the previous selection as a whole.
type UpdateAnswersRequest struct {
	Industry          *string  `json:"industry,omitempty"`
	TeamSize          *string  `json:"team_size,omitempty"          validate:"omitempty,oneof=solo small medium large"`
	UsesDigitalTools  *string  `json:"uses_digital_tools,omitempty" validate:"omitempty,oneof=unknown yes no"`
	ToolsDescription  *string  `json:"tools_description,omitempty"`
	PainPoints        []string `json:"pain_points,omitempty"        validate:"omitempty,dive,oneof=client-communication-overload finance-bookkeeping-disorganization manual-repetitive-work no-online-presence scattered-information"`
	WorkflowNarrative *string  `json:"workflow_narrative,omitempty"`
	Priority          *string  `json:"priority,omitempty"           validate:"omitempty,oneof=save-time get-clients improve-data automate-tasks explore-options none-yet"`
	SelectedAddOns    []string `json:"selected_add_ons,omitempty"`
}

// ToUpdate converts the request into the domain-level merge payload.
func (r *UpdateAnswersRequest) ToUpdate() models.AnswersUpdate {
	update := models.AnswersUpdate{
		Industry:          r.Industry,
		ToolsDescription:  r.ToolsDescription,
		WorkflowNarrative: r.WorkflowNarrative,
		SelectedAddOns:    r.SelectedAddOns,
	}

	if r.TeamSize != nil {
		size := models.TeamSize(*r.TeamSize)
		update.TeamSize = &size
	}

	if r.UsesDigitalTools != nil {
		tri := models.TriState(*r.UsesDigitalTools)
		update.UsesDigitalTools = &tri
	}

	if r.PainPoints != nil {
		points := make([]models.PainPoint, 0, len(r.PainPoints))
		for _, p := range r.PainPoints {
			points = append(points, models.PainPoint(p))
		}

		update.PainPoints = points
	}

	if r.Priority != nil {
		priority := models.Priority(*r.Priority)
		update.Priority = &priority
	}

	return update
}

// SaveForLaterRequest represents the request body for the save-for-later
// terminal action.
type SaveForLaterRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RegeneratePreviewRequest asks the code-generation service to rewrite one
// named section of a previously generated preview document.
type RegeneratePreviewRequest struct {
	Code    string `json:"code"    validate:"required"`
	Section string `json:"section" validate:"required"`
	Prompt  string `json:"prompt"  validate:"required"`
}

// StartSessionResponse reports whether the session was resumed from a
// persisted draft together with its initial state.
type StartSessionResponse struct {
	Resumed bool                   `json:"resumed"`
	State   *services.SessionState `json:"state"`
}

// PreviewResponse carries the computed solution and, when requested, the
// generated preview document.
type PreviewResponse struct {
	Solution *models.Solution `json:"solution"`
	Code     string           `json:"code,omitempty"`
}
