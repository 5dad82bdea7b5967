package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/agents"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/api/dto"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/service"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/ctxlog"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/templates"
)

const version = "0.1.0"

// Server encapsula todas dependências da API
type Server struct {
	router       *chi.Mux
	manager      *service.Manager
	agents       *agents.Registry
	logger       *slog.Logger
	pollInterval time.Duration
}

// Options do servidor; zero values usam os defaults
type Options struct {
	Logger       *slog.Logger
	PollInterval time.Duration
}

// NewServer cria server com dependências injetadas
func NewServer(manager *service.Manager, roster *agents.Registry, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = service.DefaultPollInterval
	}
	s := &Server{
		router:       chi.NewRouter(),
		manager:      manager,
		agents:       roster,
		logger:       opts.Logger,
		pollInterval: opts.PollInterval,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(jsonContentType)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Catálogos
		r.Get("/node-types", s.handleNodeTypes)
		r.Get("/action-templates", s.handleActionTemplates)
		r.Get("/agents", s.handleAgents)
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{id}", s.handleGetTemplate)

		// Sessões de edição
		r.Route("/sessions", func(r chi.Router) {
			// stream sem timeout: dura até o run terminar
			r.Get("/{sid}/run/watch", s.handleWatchRun)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(30 * time.Second))
				r.Post("/", s.handleOpenSession)
				r.Get("/", s.handleListSessions)
				r.Get("/{sid}", s.handleGetSession)
				r.Delete("/{sid}", s.handleCloseSession)

				r.Post("/{sid}/nodes", s.handleCreateNode)
				r.Patch("/{sid}/nodes/{nid}", s.handleUpdateNode)
				r.Delete("/{sid}/nodes/{nid}", s.handleDeleteNode)
				r.Put("/{sid}/nodes/{nid}/position", s.handleSetPosition)
				r.Post("/{sid}/connections", s.handleConnect)
				r.Delete("/{sid}/connections", s.handleDisconnect)
				r.Patch("/{sid}/meta", s.handleUpdateMeta)

				r.Post("/{sid}/undo", s.handleUndo)
				r.Post("/{sid}/redo", s.handleRedo)
				r.Get("/{sid}/validate", s.handleValidate)

				r.Post("/{sid}/draft", s.handleSaveDraft)
				r.Post("/{sid}/save", s.handleSave)
				r.Post("/{sid}/run", s.handleRun)
				r.Get("/{sid}/run", s.handleRunStatus)
				r.Delete("/{sid}/workflow", s.handleDeleteSessionWorkflow)
			})
		})

		// Workflows no backend
		r.Get("/workflows", s.handleListWorkflows)
		r.Delete("/workflows/{id}", s.handleDeleteWorkflow)

		// Rascunhos
		r.Get("/drafts", s.handleListDrafts)
		r.Delete("/drafts/{key}", s.handleDeleteDraft)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler: Health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   version,
	})
}

// requestLogger coloca o logger com request_id no contexto e loga cada request
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctxlog.WithLogger(r.Context(), logger)))

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// Helper: JSON content-type
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Helper: Responder JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: Responder erro
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondDomainError traduz erros do domínio/serviço em status HTTP
func respondDomainError(w http.ResponseWriter, err error) {
	var rejected *domain.RunRejectedError
	if errors.As(err, &rejected) {
		respondJSON(w, http.StatusUnprocessableEntity, dto.RunRejectedResponse{
			Error:       err.Error(),
			Code:        "RUN_REJECTED",
			Diagnostics: rejected.Diagnostics,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
	case errors.Is(err, templates.ErrTemplateNotFound):
		respondError(w, http.StatusNotFound, "TEMPLATE_NOT_FOUND", err.Error())
	case errors.Is(err, ports.ErrDraftNotFound):
		respondError(w, http.StatusNotFound, "DRAFT_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "NODE_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrSelfLoop):
		respondError(w, http.StatusConflict, "SELF_LOOP", err.Error())
	case errors.Is(err, domain.ErrReference), errors.Is(err, domain.ErrStructure):
		respondError(w, http.StatusConflict, "INVALID_STRUCTURE", err.Error())
	case errors.Is(err, domain.ErrSerialization):
		respondError(w, http.StatusBadRequest, "INVALID_DOCUMENT", err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		respondError(w, http.StatusUnprocessableEntity, "INVALID_CONFIG", err.Error())
	case errors.Is(err, domain.ErrNetwork):
		respondError(w, http.StatusBadGateway, "BACKEND_UNAVAILABLE", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
