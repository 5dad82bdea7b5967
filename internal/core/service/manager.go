package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/ctxlog"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/templates"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/wire"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager mantém as sessões de edição abertas
type Manager struct {
	deps      Deps
	templates *templates.Library

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(deps Deps, library *templates.Library) *Manager {
	return &Manager{
		deps:      deps,
		templates: library,
		sessions:  make(map[string]*Session),
	}
}

func (m *Manager) open(ctx context.Context, g domain.Graph, source string) *Session {
	s := newSession(uuid.NewString(), g, m.deps)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	ctxlog.FromContext(ctx).Info("session opened", "session", s.id, "source", source, "graph", g.ID())
	return s
}

// OpenBlank começa com Trigger + End desconectados
func (m *Manager) OpenBlank(ctx context.Context, meta domain.Meta) *Session {
	return m.open(ctx, m.deps.Editor.NewBlank(meta), "blank")
}

func (m *Manager) OpenTemplate(ctx context.Context, templateID string) (*Session, error) {
	g, err := m.templates.Instantiate(templateID)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, g, "template:"+templateID), nil
}

// OpenDraft restaura um rascunho salvo; a chave do rascunho e o id remoto são mantidos
func (m *Manager) OpenDraft(ctx context.Context, key string) (*Session, error) {
	data, err := m.deps.Drafts.LoadDraft(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	g, remoteID, err := wire.DecodeDraft(data)
	if err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", key, err)
	}
	s := m.open(ctx, g, "draft")
	s.mu.Lock()
	s.draftKey = key
	s.remoteID = remoteID
	s.mu.Unlock()
	return s, nil
}

// OpenDocument abre uma sessão a partir de um documento wire.
// remote=true indica documento vindo do backend: o id dele vira o id remoto
// e o próximo Save faz PUT.
func (m *Manager) OpenDocument(ctx context.Context, doc types.Graph, remote bool) (*Session, error) {
	g, err := wire.FromWire(doc)
	if err != nil {
		return nil, err
	}
	if remote {
		if g.ID() == "" {
			return nil, &domain.SerializationError{Path: "id", Reason: "backend document has no id"}
		}
		s := m.open(ctx, g, "backend")
		s.mu.Lock()
		s.remoteID = g.ID()
		s.mu.Unlock()
		return s, nil
	}
	if g.ID() == "" {
		g = m.deps.Editor.AssignID(g, m.deps.Editor.NewID())
	}
	return m.open(ctx, g, "import"), nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List devolve os ids das sessões abertas em ordem
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	ctxlog.FromContext(ctx).Info("session closed", "session", id)
	return nil
}

// Templates expõe o catálogo para a API
func (m *Manager) Templates() *templates.Library { return m.templates }

// Deps expõe as dependências (catálogos, backend)
func (m *Manager) Deps() Deps { return m.deps }
