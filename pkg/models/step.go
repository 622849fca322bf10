package models

// StepName identifies a wizard step symbolically. Positional identity (the
// index into the catalog) is carried separately by the catalog itself.
type StepName string

const (
	StepContext    StepName = "context"
	StepPainPoints StepName = "pain-points"
	StepWorkflow   StepName = "workflow"
	StepPriority   StepName = "priority"
	StepPreview    StepName = "preview"
	StepExit       StepName = "exit"
)
