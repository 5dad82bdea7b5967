package agents

import (
	"fmt"
	"slices"
	"sync"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
)

// Agent é uma entrada do roster que o dashboard pode delegar
type Agent struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}

// Registry guarda o roster de agentes. Seguro para uso concorrente.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string
}

// Verifica interface
var _ domain.AgentRoster = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]Agent),
	}
}

func (r *Registry) Register(a Agent) error {
	if a.ID == "" {
		return fmt.Errorf("agent id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[a.ID]; exists {
		return fmt.Errorf("agent already registered: %s", a.ID)
	}
	r.agents[a.ID] = a
	r.order = append(r.order, a.ID)
	return nil
}

func (r *Registry) HasAgent(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[id]
	return ok
}

func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return Agent{}, false
	}
	a.Capabilities = slices.Clone(a.Capabilities)
	return a, true
}

// List na ordem de registro
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Agent, 0, len(r.order))
	for _, id := range r.order {
		a := r.agents[id]
		a.Capabilities = slices.Clone(a.Capabilities)
		out = append(out, a)
	}
	return out
}

// RegisterBuiltins carrega o roster padrão da workforce
func RegisterBuiltins(r *Registry) {
	builtins := []Agent{
		{ID: "research-agent", Name: "Research Agent", Role: "research", Capabilities: []string{"web_search", "summarize"}},
		{ID: "writer-agent", Name: "Writer Agent", Role: "content", Capabilities: []string{"draft", "edit"}},
		{ID: "analyst-agent", Name: "Analyst Agent", Role: "analytics", Capabilities: []string{"report", "forecast"}},
		{ID: "support-agent", Name: "Support Agent", Role: "support", Capabilities: []string{"triage", "reply"}},
		{ID: "scheduler-agent", Name: "Scheduler Agent", Role: "operations", Capabilities: []string{"calendar", "reminders"}},
	}
	for _, a := range builtins {
		_ = r.Register(a)
	}
}
