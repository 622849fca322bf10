package models

import "time"

// ProjectStatus is the lifecycle state of a provisioned project record.
type ProjectStatus string

const (
	ProjectStatusCreated ProjectStatus = "created"
)

// ProjectRecord is the tracked-item record handed to the host application on
// the self-serve path.
type ProjectRecord struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"      validate:"required"`
	Category  SolutionCategory `json:"category"  validate:"required"`
	Status    ProjectStatus    `json:"status"`
	Progress  int              `json:"progress"`
	Benefits  []string         `json:"benefits"`
	NextSteps []string         `json:"next_steps"`
	CreatedAt time.Time        `json:"created_at"`
}

// ContactContext is the packaged intake handed to the host's contact flow on
// the expert-assisted path.
type ContactContext struct {
	SolutionName string           `json:"solution_name"`
	Category     SolutionCategory `json:"category"`
	Answers      *Answers         `json:"answers"`
}
