package domain

import (
	"maps"
	"reflect"
	"slices"
)

// Meta são os campos descritivos do grafo
type Meta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Graph é um snapshot imutável de um workflow.
// Toda mudança passa pelo Editor, que devolve um novo valor; snapshots
// antigos continuam válidos (render, undo/redo).
type Graph struct {
	meta      Meta
	nodes     []Node
	index     map[string]int // id -> posição da primeira ocorrência
	triggers  []TriggerDecl
	variables map[string]any
}

// NewGraph monta um snapshot a partir de dados brutos (wire, templates).
// Não valida a estrutura: ids duplicados e conexões pendentes ficam para o Validator.
func NewGraph(meta Meta, nodes []Node, triggers []TriggerDecl, variables map[string]any) (Graph, error) {
	g := Graph{
		meta:  meta,
		nodes: make([]Node, 0, len(nodes)),
	}

	for _, n := range nodes {
		cfg, err := normalizeConfig(n.Config)
		if err != nil {
			return Graph{}, &ConfigurationError{NodeID: n.ID, Reason: err.Error()}
		}
		n.Config = cfg
		if len(n.Connections) == 0 {
			n.Connections = nil
		} else {
			n.Connections = slices.Clone(n.Connections)
		}
		g.nodes = append(g.nodes, n)
	}

	for _, t := range triggers {
		cfg, err := normalizeConfig(t.Config)
		if err != nil {
			return Graph{}, &ConfigurationError{Field: "triggers", Reason: err.Error()}
		}
		g.triggers = append(g.triggers, TriggerDecl{Type: t.Type, Config: cfg})
	}

	vars, err := normalizeConfig(variables)
	if err != nil {
		return Graph{}, &ConfigurationError{Field: "variables", Reason: err.Error()}
	}
	g.variables = map[string]any(vars)

	g.reindex()
	return g, nil
}

func (g *Graph) reindex() {
	g.index = make(map[string]int, len(g.nodes))
	for i, n := range g.nodes {
		if _, dup := g.index[n.ID]; dup {
			continue
		}
		g.index[n.ID] = i
	}
}

// clone faz deep copy; o Editor só muta clones
func (g Graph) clone() Graph {
	out := Graph{
		meta:      g.meta,
		nodes:     make([]Node, len(g.nodes)),
		index:     maps.Clone(g.index),
		variables: map[string]any(cloneConfig(Config(g.variables))),
	}
	for i, n := range g.nodes {
		out.nodes[i] = n.clone()
	}
	if len(g.triggers) > 0 {
		out.triggers = make([]TriggerDecl, len(g.triggers))
		for i, t := range g.triggers {
			out.triggers[i] = t.clone()
		}
	}
	if out.index == nil {
		out.index = map[string]int{}
	}
	return out
}

func (g Graph) Meta() Meta          { return g.meta }
func (g Graph) ID() string          { return g.meta.ID }
func (g Graph) Name() string        { return g.meta.Name }
func (g Graph) Description() string { return g.meta.Description }
func (g Graph) Category() string    { return g.meta.Category }
func (g Graph) Len() int            { return len(g.nodes) }

func (g Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

func (g Graph) Variables() map[string]any {
	return map[string]any(cloneConfig(Config(g.variables)))
}

// Node devolve uma cópia do nó
func (g Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i].clone(), true
}

// Nodes na ordem de inserção (cópias)
func (g Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.clone()
	}
	return out
}

func (g Graph) NodeIDs() []string {
	out := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.ID
	}
	return out
}

func (g Graph) Triggers() []TriggerDecl {
	if len(g.triggers) == 0 {
		return nil
	}
	out := make([]TriggerDecl, len(g.triggers))
	for i, t := range g.triggers {
		out[i] = t.clone()
	}
	return out
}

// Outgoing devolve as conexões de saída de id, na ordem armazenada
func (g Graph) Outgoing(id string) []string {
	i, ok := g.index[id]
	if !ok || len(g.nodes[i].Connections) == 0 {
		return nil
	}
	return slices.Clone(g.nodes[i].Connections)
}

// Incoming é derivado: varre as conexões de todos os nós
func (g Graph) Incoming(id string) []string {
	var out []string
	for _, n := range g.nodes {
		if n.HasConnection(id) {
			out = append(out, n.ID)
		}
	}
	return out
}

// NodesOfType filtra por tipo, em ordem de inserção
func (g Graph) NodesOfType(t NodeType) []Node {
	var out []Node
	for _, n := range g.nodes {
		if n.Type == t {
			out = append(out, n.clone())
		}
	}
	return out
}

// Equal compara estrutura (meta, nós, triggers, variáveis)
func (g Graph) Equal(other Graph) bool {
	if g.meta != other.meta || len(g.nodes) != len(other.nodes) {
		return false
	}
	for i := range g.nodes {
		if !reflect.DeepEqual(g.nodes[i], other.nodes[i]) {
			return false
		}
	}
	if len(g.triggers) != len(other.triggers) {
		return false
	}
	for i := range g.triggers {
		if !reflect.DeepEqual(g.triggers[i], other.triggers[i]) {
			return false
		}
	}
	return reflect.DeepEqual(g.variables, other.variables)
}

func (g Graph) nodeRef(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[i], true
}
