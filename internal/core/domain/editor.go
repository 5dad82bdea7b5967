package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

// NodePatch: campos nil não são alterados.
// Config faz merge raso; ConfigPaths aplica paths sjson depois do merge.
type NodePatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	ConfigPaths map[string]any `json:"configPaths,omitempty"`
	Position    *Position      `json:"position,omitempty"`
	Status      *NodeStatus    `json:"status,omitempty"`
}

// MetaPatch altera os campos descritivos do grafo
type MetaPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Triggers    *[]TriggerDecl `json:"triggers,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
}

// Editor é o único caminho de mutação. Cada operação devolve um novo Graph
// e nunca toca o valor de entrada.
type Editor struct {
	registry *Registry
	newID    func() string
}

func NewEditor(registry *Registry) *Editor {
	return &Editor{
		registry: registry,
		newID:    uuid.NewString,
	}
}

// WithIDGenerator troca o gerador de ids (testes)
func (e *Editor) WithIDGenerator(gen func() string) *Editor {
	return &Editor{registry: e.registry, newID: gen}
}

func (e *Editor) Registry() *Registry { return e.registry }

// NewID gera um id no mesmo formato dos nós
func (e *Editor) NewID() string { return e.newID() }

// NewBlank cria o grafo inicial: um Trigger e um End, sem conexão
func (e *Editor) NewBlank(meta Meta) Graph {
	if meta.ID == "" {
		meta.ID = e.newID()
	}
	g := Graph{meta: meta, index: map[string]int{}, variables: map[string]any{}}
	g, _ = e.CreateNode(g, NodeTrigger, Position{X: 100, Y: 200})
	g, _ = e.CreateNode(g, NodeTerminator, Position{X: 500, Y: 200})
	return g
}

// CreateNode anexa um nó com a config default do tipo. Não falha:
// tipo desconhecido recebe config vazia e é reportado pelo Validator.
func (e *Editor) CreateNode(g Graph, t NodeType, pos Position) (Graph, string) {
	cfg, err := e.registry.DefaultConfigFor(t)
	if err != nil {
		cfg = Config{}
	}
	cfg, _ = normalizeConfig(cfg)

	out := g.clone()
	id := e.newID()
	out.nodes = append(out.nodes, Node{
		ID:       id,
		Type:     t,
		Name:     defaultName(t),
		Config:   cfg,
		Position: pos,
		Status:   StatusActive,
	})
	out.index[id] = len(out.nodes) - 1
	return out, id
}

func defaultName(t NodeType) string {
	switch t {
	case NodeTrigger:
		return "Trigger"
	case NodeCondition:
		return "Condition"
	case NodeAction:
		return "Action"
	case NodeAgentDelegation:
		return "Agent task"
	case NodeDecision:
		return "Decision"
	case NodeDelay:
		return "Delay"
	case NodeTerminator:
		return "End"
	default:
		return t.String()
	}
}

// UpdateNode não valida config contra o schema
func (e *Editor) UpdateNode(g Graph, id string, patch NodePatch) (Graph, error) {
	if !g.Has(id) {
		return g, &NotFoundError{NodeID: id}
	}

	out := g.clone()
	n, _ := out.nodeRef(id)

	if patch.Name != nil {
		n.Name = *patch.Name
	}
	if patch.Description != nil {
		n.Description = *patch.Description
	}
	if patch.Position != nil {
		n.Position = *patch.Position
	}
	if patch.Status != nil {
		n.Status = *patch.Status
	}

	if len(patch.Config) > 0 || len(patch.ConfigPaths) > 0 {
		cfg, err := mergeConfig(n.Config, patch.Config, patch.ConfigPaths)
		if err != nil {
			return g, &ConfigurationError{NodeID: id, Reason: err.Error()}
		}
		n.Config = cfg
	}

	return out, nil
}

func mergeConfig(base Config, top map[string]any, paths map[string]any) (Config, error) {
	merged := cloneConfig(base)
	for k, v := range top {
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	// ordem determinística para paths sobrepostos ("a" e "a.b")
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, p := range keys {
		raw, err = sjson.SetBytes(raw, p, paths[p])
		if err != nil {
			return nil, fmt.Errorf("set config path %q: %w", p, err)
		}
	}

	out := Config{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return out, nil
}

// DeleteNode remove o nó e o id dele de todas as listas de conexão
func (e *Editor) DeleteNode(g Graph, id string) (Graph, error) {
	if !g.Has(id) {
		return g, &NotFoundError{NodeID: id}
	}

	out := g.clone()
	kept := out.nodes[:0]
	for _, n := range out.nodes {
		if n.ID == id {
			continue
		}
		if n.HasConnection(id) {
			n.Connections = slices.DeleteFunc(n.Connections, func(c string) bool { return c == id })
			if len(n.Connections) == 0 {
				n.Connections = nil
			}
		}
		kept = append(kept, n)
	}
	out.nodes = kept
	out.reindex()
	return out, nil
}

// Connect é idempotente: conectar duas vezes não duplica a aresta
func (e *Editor) Connect(g Graph, sourceID, targetID string) (Graph, error) {
	if sourceID == targetID {
		return g, &SelfLoopError{NodeID: sourceID}
	}
	if !g.Has(sourceID) {
		return g, &NotFoundError{NodeID: sourceID}
	}
	if !g.Has(targetID) {
		return g, &NotFoundError{NodeID: targetID}
	}

	src, _ := g.nodeRef(sourceID)
	if src.HasConnection(targetID) {
		return g, nil
	}

	out := g.clone()
	n, _ := out.nodeRef(sourceID)
	n.Connections = append(n.Connections, targetID)
	return out, nil
}

// Disconnect sem a aresta é no-op
func (e *Editor) Disconnect(g Graph, sourceID, targetID string) (Graph, error) {
	src, ok := g.nodeRef(sourceID)
	if !ok {
		return g, &NotFoundError{NodeID: sourceID}
	}
	if !src.HasConnection(targetID) {
		return g, nil
	}

	out := g.clone()
	n, _ := out.nodeRef(sourceID)
	n.Connections = slices.DeleteFunc(n.Connections, func(c string) bool { return c == targetID })
	if len(n.Connections) == 0 {
		n.Connections = nil
	}
	return out, nil
}

// SetPosition só altera coordenadas de exibição
func (e *Editor) SetPosition(g Graph, id string, pos Position) (Graph, error) {
	if !g.Has(id) {
		return g, &NotFoundError{NodeID: id}
	}
	out := g.clone()
	n, _ := out.nodeRef(id)
	n.Position = pos
	return out, nil
}

// UpdateMeta altera nome, descrição, categoria, triggers e variáveis
func (e *Editor) UpdateMeta(g Graph, patch MetaPatch) (Graph, error) {
	out := g.clone()
	if patch.Name != nil {
		out.meta.Name = *patch.Name
	}
	if patch.Description != nil {
		out.meta.Description = *patch.Description
	}
	if patch.Category != nil {
		out.meta.Category = *patch.Category
	}
	if patch.Triggers != nil {
		out.triggers = nil
		for _, t := range *patch.Triggers {
			if !t.Type.Valid() {
				return g, &ConfigurationError{Field: "triggers", Reason: fmt.Sprintf("unknown trigger type %q", t.Type)}
			}
			cfg, err := normalizeConfig(t.Config)
			if err != nil {
				return g, &ConfigurationError{Field: "triggers", Reason: err.Error()}
			}
			out.triggers = append(out.triggers, TriggerDecl{Type: t.Type, Config: cfg})
		}
	}
	if patch.Variables != nil {
		vars, err := normalizeConfig(patch.Variables)
		if err != nil {
			return g, &ConfigurationError{Field: "variables", Reason: err.Error()}
		}
		out.variables = map[string]any(vars)
	}
	return out, nil
}

// AssignID troca o id do grafo (id atribuído pelo backend no primeiro save)
func (e *Editor) AssignID(g Graph, id string) Graph {
	out := g.clone()
	out.meta.ID = id
	return out
}

// Reidentify gera ids novos para o grafo e todos os nós, reapontando conexões
// e referências {{<id>.campo}} nas configs.
// Conexões para ids fora do grafo são mantidas como estão.
func (e *Editor) Reidentify(g Graph) Graph {
	out := g.clone()
	out.meta.ID = e.newID()

	rename := make(map[string]string, len(out.nodes))
	for _, n := range out.nodes {
		if _, seen := rename[n.ID]; seen {
			continue
		}
		rename[n.ID] = e.newID()
	}

	for i := range out.nodes {
		n := &out.nodes[i]
		n.ID = rename[n.ID]
		for j, c := range n.Connections {
			if to, ok := rename[c]; ok {
				n.Connections[j] = to
			}
		}
		for k, v := range n.Config {
			n.Config[k] = renameRefs(v, rename)
		}
	}
	out.reindex()
	return out
}

// renameRefs opera sobre config já clonada
func renameRefs(v any, rename map[string]string) any {
	switch tv := v.(type) {
	case string:
		if !strings.Contains(tv, "{{") {
			return tv
		}
		for from, to := range rename {
			tv = strings.ReplaceAll(tv, "{{"+from+".", "{{"+to+".")
		}
		return tv
	case map[string]any:
		for k, x := range tv {
			tv[k] = renameRefs(x, rename)
		}
		return tv
	case []any:
		for i, x := range tv {
			tv[i] = renameRefs(x, rename)
		}
		return tv
	}
	return v
}
