package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/api/dto"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/service"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/ctxlog"
)

// session resolve {sid}; responde 404 quando não existe
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, err := s.manager.Get(chi.URLParam(r, "sid"))
	if err != nil {
		respondDomainError(w, err)
		return nil, false
	}
	return sess, true
}

func respondState(w http.ResponseWriter, status int, st service.State) {
	respondJSON(w, status, dto.NewSessionResponse(st))
}

// Handler: POST /api/v1/sessions
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sources := 0
	for _, set := range []bool{req.TemplateID != "", req.DraftKey != "", req.Document != nil} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		respondError(w, http.StatusBadRequest, "AMBIGUOUS_SOURCE", "choose one of template_id, draft_key or document")
		return
	}

	ctx := r.Context()
	var (
		sess *service.Session
		err  error
	)
	switch {
	case req.TemplateID != "":
		sess, err = s.manager.OpenTemplate(ctx, req.TemplateID)
	case req.DraftKey != "":
		sess, err = s.manager.OpenDraft(ctx, req.DraftKey)
	case req.Document != nil:
		sess, err = s.manager.OpenDocument(ctx, *req.Document, req.Remote)
	default:
		sess = s.manager.OpenBlank(ctx, domain.Meta{Name: req.Name, Category: req.Category})
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondState(w, http.StatusCreated, sess.State())
}

// Handler: GET /api/v1/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"sessions": s.manager.List()})
}

// Handler: GET /api/v1/sessions/{sid}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondState(w, http.StatusOK, sess.State())
}

// Handler: DELETE /api/v1/sessions/{sid}
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Close(r.Context(), chi.URLParam(r, "sid")); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Handler: POST /api/v1/sessions/{sid}/nodes
func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req dto.CreateNodeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	t, err := domain.ParseNodeType(req.Type)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	st, id := sess.CreateNode(t, req.Position)
	respondJSON(w, http.StatusCreated, dto.CreateNodeResponse{
		NodeID:  id,
		Session: dto.NewSessionResponse(st),
	})
}

// Handler: PATCH /api/v1/sessions/{sid}/nodes/{nid}
func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var patch domain.NodePatch
	if err := decodeBody(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	st, err := sess.UpdateNode(chi.URLParam(r, "nid"), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondState(w, http.StatusOK, st)
}

// Handler: DELETE /api/v1/sessions/{sid}/nodes/{nid}
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st, err := sess.DeleteNode(chi.URLParam(r, "nid"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondState(w, http.StatusOK, st)
}

// Handler: PUT /api/v1/sessions/{sid}/nodes/{nid}/position
func (s *Server) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req dto.SetPositionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	st, err := sess.SetPosition(chi.URLParam(r, "nid"), domain.Position{X: req.X, Y: req.Y})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondState(w, http.StatusOK, st)
}

func (s *Server) decodeEdge(w http.ResponseWriter, r *http.Request) (dto.ConnectRequest, bool) {
	var req dto.ConnectRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return req, false
	}
	if req.Source == "" || req.Target == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ENDPOINT", "source and target are required")
		return req, false
	}
	return req, true
}

// Handler: POST /api/v1/sessions/{sid}/connections
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeEdge(w, r)
	if !ok {
		return
	}
	st, err := sess.Connect(req.Source, req.Target)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondState(w, http.StatusOK, st)
}

// Handler: DELETE /api/v1/sessions/{sid}/connections
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeEdge(w, r)
	if !ok {
		return
	}
	st, err := sess.Disconnect(req.Source, req.Target)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondState(w, http.StatusOK, st)
}

// Handler: PATCH /api/v1/sessions/{sid}/meta
func (s *Server) handleUpdateMeta(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var patch domain.MetaPatch
	if err := decodeBody(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	st, err := sess.UpdateMeta(patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondState(w, http.StatusOK, st)
}

// Handler: POST /api/v1/sessions/{sid}/undo
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st, changed := sess.Undo()
	if !changed {
		respondError(w, http.StatusConflict, "NOTHING_TO_UNDO", "undo history is empty")
		return
	}
	respondState(w, http.StatusOK, st)
}

// Handler: POST /api/v1/sessions/{sid}/redo
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st, changed := sess.Redo()
	if !changed {
		respondError(w, http.StatusConflict, "NOTHING_TO_REDO", "redo history is empty")
		return
	}
	respondState(w, http.StatusOK, st)
}

// Handler: GET /api/v1/sessions/{sid}/validate?mode=draft|runnable
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	mode, err := domain.ParseMode(strings.ToLower(r.URL.Query().Get("mode")))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_MODE", err.Error())
		return
	}

	ds := sess.Validate(mode)
	if ds == nil {
		ds = domain.Diagnostics{}
	}
	respondJSON(w, http.StatusOK, dto.ValidationResponse{
		Mode:        mode.String(),
		Valid:       !ds.HasErrors(),
		Diagnostics: ds,
	})
}

// Handler: POST /api/v1/sessions/{sid}/draft
func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.SaveDraft(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondState(w, http.StatusOK, sess.State())
}

// Handler: POST /api/v1/sessions/{sid}/save
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	id, err := sess.Save(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.SaveResponse{
		WorkflowID: id,
		SavedAt:    sess.State().SavedAt,
	})
}

// Handler: POST /api/v1/sessions/{sid}/run
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	handle, err := sess.Run(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, handle)
}

// Handler: GET /api/v1/sessions/{sid}/run
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	run := sess.State().LastRun
	if run == nil {
		respondError(w, http.StatusNotFound, "RUN_NOT_FOUND", "session has no run")
		return
	}
	state, err := s.manager.Deps().Backend.Poll(r.Context(), run.RunID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// Handler: GET /api/v1/sessions/{sid}/run/watch
// Stream NDJSON de RunState até status terminal
func (s *Server) handleWatchRun(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	updates, err := sess.WatchRun(r.Context(), s.pollInterval)
	if err != nil {
		respondError(w, http.StatusNotFound, "RUN_NOT_FOUND", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	logger := ctxlog.FromContext(r.Context())

	for u := range updates {
		if u.Err != nil {
			logger.Warn("run poll failed", "session", sess.ID(), "error", u.Err)
			enc.Encode(dto.ErrorResponse{Error: u.Err.Error(), Code: "POLL_FAILED"})
		} else if err := enc.Encode(u.State); err != nil {
			logger.Debug("watch client gone", "session", sess.ID(), "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// Handler: DELETE /api/v1/sessions/{sid}/workflow
func (s *Server) handleDeleteSessionWorkflow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Delete(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondState(w, http.StatusOK, sess.State())
}
