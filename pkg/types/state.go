package types

import "time"

type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Terminal indica que o backend não vai mais mudar o status
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

func (s RunStatus) Valid() bool {
	switch s {
	case RunQueued, RunRunning, RunCompleted, RunFailed:
		return true
	default:
		return false
	}
}

// RunHandle devolvido pelo backend em POST /workflows/{id}/run
type RunHandle struct {
	RunID  string    `json:"runId"`
	Status RunStatus `json:"status"`
}

// RunState é a resposta de GET /runs/{runId}
type RunState struct {
	RunID      string    `json:"runId"`
	WorkflowID string    `json:"workflowId,omitempty"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// WorkflowSummary item de GET /workflows
type WorkflowSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}
