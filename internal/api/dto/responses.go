package dto

import (
	"time"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/service"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/wire"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

type SessionResponse struct {
	SessionID   string             `json:"session_id"`
	Graph       types.Graph        `json:"graph"`
	Diagnostics domain.Diagnostics `json:"diagnostics"`
	RemoteID    string             `json:"remote_id,omitempty"`
	LastRun     *types.RunHandle   `json:"last_run,omitempty"`
	CanUndo     bool               `json:"can_undo"`
	CanRedo     bool               `json:"can_redo"`
	SavedAt     *time.Time         `json:"saved_at,omitempty"`
}

func NewSessionResponse(st service.State) SessionResponse {
	resp := SessionResponse{
		SessionID:   st.SessionID,
		Graph:       wire.ToWire(st.Graph),
		Diagnostics: st.Diagnostics,
		RemoteID:    st.RemoteID,
		LastRun:     st.LastRun,
		CanUndo:     st.CanUndo,
		CanRedo:     st.CanRedo,
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = domain.Diagnostics{}
	}
	if !st.SavedAt.IsZero() {
		saved := st.SavedAt
		resp.SavedAt = &saved
	}
	return resp
}

type CreateNodeResponse struct {
	NodeID  string          `json:"node_id"`
	Session SessionResponse `json:"session"`
}

type ValidationResponse struct {
	Mode        string             `json:"mode"`
	Valid       bool               `json:"valid"`
	Diagnostics domain.Diagnostics `json:"diagnostics"`
}

type SaveResponse struct {
	WorkflowID string    `json:"workflow_id"`
	SavedAt    time.Time `json:"saved_at"`
}

type RunRejectedResponse struct {
	Error       string             `json:"error"`
	Code        string             `json:"code"`
	Diagnostics domain.Diagnostics `json:"diagnostics"`
}

type TemplateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Nodes       int    `json:"nodes"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
