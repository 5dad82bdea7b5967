package dto

import (
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

// OpenSessionRequest: no máximo uma origem (template, draft ou document).
// Sem nenhuma abre um grafo em branco.
type OpenSessionRequest struct {
	TemplateID string       `json:"template_id,omitempty"`
	DraftKey   string       `json:"draft_key,omitempty"`
	Document   *types.Graph `json:"document,omitempty"`
	// Remote: document veio de GET /workflows; Save passa a fazer PUT no id dele
	Remote   bool   `json:"remote,omitempty"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
}

type CreateNodeRequest struct {
	Type     string          `json:"type"`
	Position domain.Position `json:"position"`
}

type SetPositionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ConnectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
