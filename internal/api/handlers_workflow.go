package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/ctxlog"
)

// Handler: GET /api/v1/workflows
func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	list, err := s.manager.Deps().Backend.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Handler: DELETE /api/v1/workflows/{id}
// Remove direto no backend, sem sessão aberta
func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Deps().Backend.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	ctxlog.FromContext(r.Context()).Info("workflow deleted", "workflow", id)
	w.WriteHeader(http.StatusNoContent)
}

// Handler: GET /api/v1/drafts
func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	list, err := s.manager.Deps().Drafts.ListDrafts(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Handler: DELETE /api/v1/drafts/{key}
func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Deps().Drafts.DeleteDraft(r.Context(), chi.URLParam(r, "key")); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
