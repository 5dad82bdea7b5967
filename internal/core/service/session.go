package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/ctxlog"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/wire"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

const maxHistory = 100

// Deps são as dependências compartilhadas por todas as sessões
type Deps struct {
	Editor    *domain.Editor
	Validator *domain.Validator
	Backend   ports.Backend
	Drafts    ports.DraftStore
	Events    ports.EventPublisher // opcional
}

// Session é uma sessão de edição: um escritor, snapshots imutáveis.
// Save e Run copiam o snapshot sob o lock e fazem I/O sem ele.
type Session struct {
	id   string
	deps Deps

	mu          sync.Mutex
	saveMu      sync.Mutex // serializa Save, Run e Delete no backend; edições seguem livres
	graph       domain.Graph
	diagnostics domain.Diagnostics
	undo        []domain.Graph
	redo        []domain.Graph
	draftKey    string
	remoteID    string
	lastRun     *types.RunHandle
	savedAt     time.Time
}

// State é a visão somente leitura da sessão
type State struct {
	SessionID   string
	Graph       domain.Graph
	Diagnostics domain.Diagnostics
	RemoteID    string
	LastRun     *types.RunHandle
	CanUndo     bool
	CanRedo     bool
	SavedAt     time.Time
}

func newSession(id string, g domain.Graph, deps Deps) *Session {
	s := &Session{
		id:       id,
		deps:     deps,
		graph:    g,
		draftKey: g.ID(),
	}
	s.diagnostics = deps.Validator.Validate(g, domain.Draft)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		SessionID:   s.id,
		Graph:       s.graph,
		Diagnostics: s.diagnostics,
		RemoteID:    s.remoteID,
		CanUndo:     len(s.undo) > 0,
		CanRedo:     len(s.redo) > 0,
		SavedAt:     s.savedAt,
	}
	if s.lastRun != nil {
		run := *s.lastRun
		st.LastRun = &run
	}
	return st
}

func (s *Session) Graph() domain.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// commit troca o snapshot atual; record=false para mudanças só de exibição
func (s *Session) commit(next domain.Graph, record bool) {
	if record {
		s.undo = append(s.undo, s.graph)
		if len(s.undo) > maxHistory {
			s.undo = s.undo[len(s.undo)-maxHistory:]
		}
		s.redo = nil
	}
	s.graph = next
	s.diagnostics = s.deps.Validator.Validate(next, domain.Draft)
}

func (s *Session) edit(record bool, op func(g domain.Graph) (domain.Graph, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := op(s.graph)
	if err != nil {
		return s.stateLocked(), err
	}
	s.commit(next, record)
	return s.stateLocked(), nil
}

func (s *Session) CreateNode(t domain.NodeType, pos domain.Position) (State, string) {
	var id string
	st, _ := s.edit(true, func(g domain.Graph) (domain.Graph, error) {
		var next domain.Graph
		next, id = s.deps.Editor.CreateNode(g, t, pos)
		return next, nil
	})
	return st, id
}

func (s *Session) UpdateNode(id string, patch domain.NodePatch) (State, error) {
	return s.edit(true, func(g domain.Graph) (domain.Graph, error) {
		return s.deps.Editor.UpdateNode(g, id, patch)
	})
}

func (s *Session) DeleteNode(id string) (State, error) {
	return s.edit(true, func(g domain.Graph) (domain.Graph, error) {
		return s.deps.Editor.DeleteNode(g, id)
	})
}

func (s *Session) Connect(sourceID, targetID string) (State, error) {
	return s.edit(true, func(g domain.Graph) (domain.Graph, error) {
		return s.deps.Editor.Connect(g, sourceID, targetID)
	})
}

func (s *Session) Disconnect(sourceID, targetID string) (State, error) {
	return s.edit(true, func(g domain.Graph) (domain.Graph, error) {
		return s.deps.Editor.Disconnect(g, sourceID, targetID)
	})
}

// SetPosition não entra no histórico de undo
func (s *Session) SetPosition(id string, pos domain.Position) (State, error) {
	return s.edit(false, func(g domain.Graph) (domain.Graph, error) {
		return s.deps.Editor.SetPosition(g, id, pos)
	})
}

func (s *Session) UpdateMeta(patch domain.MetaPatch) (State, error) {
	return s.edit(true, func(g domain.Graph) (domain.Graph, error) {
		return s.deps.Editor.UpdateMeta(g, patch)
	})
}

// keepLayout leva as posições atuais para o snapshot restaurado,
// já que mover nós não faz parte do histórico
func (s *Session) keepLayout(target domain.Graph) domain.Graph {
	for _, n := range s.graph.Nodes() {
		cur, ok := target.Node(n.ID)
		if !ok || cur.Position == n.Position {
			continue
		}
		if next, err := s.deps.Editor.SetPosition(target, n.ID, n.Position); err == nil {
			target = next
		}
	}
	return target
}

// Undo devolve false quando não há histórico
func (s *Session) Undo() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return s.stateLocked(), false
	}
	prev := s.keepLayout(s.undo[len(s.undo)-1])
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.graph)
	s.graph = prev
	s.diagnostics = s.deps.Validator.Validate(prev, domain.Draft)
	return s.stateLocked(), true
}

func (s *Session) Redo() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return s.stateLocked(), false
	}
	next := s.keepLayout(s.redo[len(s.redo)-1])
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.graph)
	s.graph = next
	s.diagnostics = s.deps.Validator.Validate(next, domain.Draft)
	return s.stateLocked(), true
}

func (s *Session) Validate(mode domain.Mode) domain.Diagnostics {
	g := s.Graph()
	return s.deps.Validator.Validate(g, mode)
}

// SaveDraft grava o snapshot atual no DraftStore, sem exigir validade
func (s *Session) SaveDraft(ctx context.Context) error {
	s.mu.Lock()
	g, key, remoteID := s.graph, s.draftKey, s.remoteID
	s.mu.Unlock()

	data, err := wire.EncodeDraft(g, remoteID)
	if err != nil {
		return err
	}
	if err := s.deps.Drafts.SaveDraft(ctx, key, g.Name(), data); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("draft saved", "session", s.id, "key", key, "bytes", len(data))
	return nil
}

// Save exige validação Draft vazia e grava no backend (POST na primeira vez, PUT depois)
func (s *Session) Save(ctx context.Context) (string, error) {
	g := s.Graph()

	if ds := s.deps.Validator.Validate(g, domain.Draft); len(ds) > 0 {
		return "", fmt.Errorf("save rejected: %w", ds.AsError())
	}
	return s.persist(ctx, g)
}

// persist lê o id remoto só depois de pegar saveMu: dois saves
// concorrentes nunca fazem POST duas vezes
func (s *Session) persist(ctx context.Context, g domain.Graph) (string, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	remoteID := s.remoteID
	s.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	doc := wire.ToWire(g)

	if remoteID == "" {
		id, err := s.deps.Backend.Create(ctx, doc)
		if err != nil {
			return "", fmt.Errorf("create workflow: %w", err)
		}
		remoteID = id
	} else {
		doc.ID = remoteID
		if err := s.deps.Backend.Update(ctx, remoteID, doc); err != nil {
			return "", fmt.Errorf("update workflow: %w", err)
		}
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if s.remoteID == "" {
		s.remoteID = remoteID
		s.graph = s.deps.Editor.AssignID(s.graph, remoteID)
	}
	s.savedAt = now
	s.mu.Unlock()

	logger.Info("workflow saved", "session", s.id, "workflow", remoteID, "nodes", g.Len())
	if s.deps.Events != nil {
		if err := s.deps.Events.PublishWorkflowSaved(ctx, types.WorkflowSavedEvent{
			WorkflowID: remoteID,
			SessionID:  s.id,
			Name:       g.Name(),
			Nodes:      g.Len(),
			SavedAt:    now,
		}); err != nil {
			logger.Warn("publish workflow.saved failed", "workflow", remoteID, "error", err)
		}
	}
	return remoteID, nil
}

// Run valida em modo Runnable antes de qualquer chamada de rede.
// Se houver erro devolve *domain.RunRejectedError e nada é enviado.
func (s *Session) Run(ctx context.Context) (types.RunHandle, error) {
	g := s.Graph()

	ds := s.deps.Validator.Validate(g, domain.Runnable)
	if ds.HasErrors() {
		return types.RunHandle{}, &domain.RunRejectedError{Diagnostics: ds}
	}

	workflowID, err := s.persist(ctx, g)
	if err != nil {
		return types.RunHandle{}, err
	}

	handle, err := s.deps.Backend.Submit(ctx, workflowID)
	if err != nil {
		return types.RunHandle{}, fmt.Errorf("submit run: %w", err)
	}

	s.mu.Lock()
	run := handle
	s.lastRun = &run
	s.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	logger.Info("run submitted", "session", s.id, "workflow", workflowID, "run", handle.RunID)
	if s.deps.Events != nil {
		if err := s.deps.Events.PublishRunSubmitted(ctx, types.RunSubmittedEvent{
			WorkflowID:  workflowID,
			RunID:       handle.RunID,
			Status:      handle.Status,
			SubmittedAt: time.Now().UTC(),
		}); err != nil {
			logger.Warn("publish run.submitted failed", "run", handle.RunID, "error", err)
		}
	}
	return handle, nil
}

// WatchRun acompanha o último run da sessão e atualiza o status exposto em State
func (s *Session) WatchRun(ctx context.Context, interval time.Duration) (<-chan RunUpdate, error) {
	s.mu.Lock()
	if s.lastRun == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s has no run", s.id)
	}
	runID := s.lastRun.RunID
	s.mu.Unlock()

	updates := PollRun(ctx, s.deps.Backend, runID, interval)
	out := make(chan RunUpdate)
	go func() {
		defer close(out)
		for u := range updates {
			if u.Err == nil {
				s.mu.Lock()
				if s.lastRun != nil && s.lastRun.RunID == runID {
					s.lastRun.Status = u.State.Status
				}
				s.mu.Unlock()
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Delete remove o workflow no backend; a sessão continua com o grafo local
func (s *Session) Delete(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	remoteID := s.remoteID
	s.mu.Unlock()

	if remoteID == "" {
		return fmt.Errorf("session %s was never saved", s.id)
	}
	if err := s.deps.Backend.Delete(ctx, remoteID); err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}

	s.mu.Lock()
	if s.remoteID == remoteID {
		s.remoteID = ""
		s.lastRun = nil
	}
	s.mu.Unlock()

	if s.deps.Events != nil {
		if err := s.deps.Events.PublishWorkflowDeleted(ctx, types.WorkflowDeletedEvent{
			WorkflowID: remoteID,
			DeletedAt:  time.Now().UTC(),
		}); err != nil {
			ctxlog.FromContext(ctx).Warn("publish workflow.deleted failed", "workflow", remoteID, "error", err)
		}
	}
	return nil
}
