package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/helixworks/intake/pkg/models"
)

// draftSchema is the structural contract for a stored draft document.
// Adapters validate against it before decoding so that a document written by
// an older or foreign client degrades to "no draft" instead of a half-decoded
// answer record.
const draftSchema = `{
	"type": "object",
	"required": ["answers", "current_step", "timestamp"],
	"properties": {
		"answers": {
			"type": "object",
			"required": ["industry", "team_size", "uses_digital_tools", "pain_points", "workflow_narrative", "priority"],
			"properties": {
				"industry": {"type": "string"},
				"team_size": {"type": "string"},
				"uses_digital_tools": {"type": "string"},
				"tools_description": {"type": "string"},
				"pain_points": {"type": "array", "items": {"type": "string"}},
				"workflow_narrative": {"type": "string"},
				"priority": {"type": "string"},
				"selected_add_ons": {"type": "array", "items": {"type": "string"}},
				"solution": {"type": "object"}
			}
		},
		"current_step": {"type": "string"},
		"timestamp": {"type": "string"}
	}
}`

// DecodeDraft validates and decodes a stored draft document. Any failure,
// whether malformed JSON or a schema mismatch, is reported as
// ErrDraftNotFound so callers fall back to a fresh session.
func DecodeDraft(data []byte) (*models.Draft, error) {
	schemaLoader := gojsonschema.NewStringLoader(draftSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable draft document: %w", ErrDraftNotFound, err)
	}

	if !result.Valid() {
		return nil, fmt.Errorf("%w: draft document failed schema validation", ErrDraftNotFound)
	}

	var draft models.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDraftNotFound, err)
	}

	return &draft, nil
}
