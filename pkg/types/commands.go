package types

import "time"

// Subjects publicados no bus
const (
	SubjectWorkflowSaved   = "workflow.saved"
	SubjectWorkflowDeleted = "workflow.deleted"
	SubjectRunSubmitted    = "run.submitted"
	SubjectRunStatus       = "run.status"
)

type WorkflowSavedEvent struct {
	WorkflowID string    `json:"workflow_id"`
	SessionID  string    `json:"session_id,omitempty"`
	Name       string    `json:"name"`
	Nodes      int       `json:"nodes"`
	SavedAt    time.Time `json:"saved_at"`
}

type WorkflowDeletedEvent struct {
	WorkflowID string    `json:"workflow_id"`
	DeletedAt  time.Time `json:"deleted_at"`
}

type RunSubmittedEvent struct {
	WorkflowID  string    `json:"workflow_id"`
	RunID       string    `json:"run_id"`
	Status      RunStatus `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type RunStatusEvent struct {
	WorkflowID string    `json:"workflow_id,omitempty"`
	RunID      string    `json:"run_id"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}
