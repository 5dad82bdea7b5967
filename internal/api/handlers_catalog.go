package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/agents"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/api/dto"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/wire"
)

// Handler: GET /api/v1/node-types
func (s *Server) handleNodeTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.manager.Deps().Editor.Registry().Catalog())
}

// Handler: GET /api/v1/action-templates
func (s *Server) handleActionTemplates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.manager.Deps().Editor.Registry().ActionTemplates())
}

// Handler: GET /api/v1/agents
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if s.agents == nil {
		respondJSON(w, http.StatusOK, []agents.Agent{})
		return
	}
	respondJSON(w, http.StatusOK, s.agents.List())
}

// Handler: GET /api/v1/templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list := s.manager.Templates().List()
	out := make([]dto.TemplateSummary, 0, len(list))
	for _, t := range list {
		out = append(out, dto.TemplateSummary{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
			Nodes:       t.Graph.Len(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// Handler: GET /api/v1/templates/{id}
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.manager.Templates().Get(chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wire.ToWire(t.Graph))
}
