package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// NodeType é o conjunto fechado de passos do grafo.
// Ao adicionar um tipo, atualizar os switches de String, ParseNodeType e registry.schemaFor.
type NodeType int

const (
	NodeTrigger NodeType = iota
	NodeCondition
	NodeAction
	NodeAgentDelegation
	NodeDecision
	NodeDelay
	NodeTerminator
)

// AllNodeTypes na ordem de exibição da paleta
var AllNodeTypes = []NodeType{
	NodeTrigger,
	NodeCondition,
	NodeAction,
	NodeAgentDelegation,
	NodeDecision,
	NodeDelay,
	NodeTerminator,
}

// String devolve a tag wire
func (t NodeType) String() string {
	switch t {
	case NodeTrigger:
		return "trigger"
	case NodeCondition:
		return "condition"
	case NodeAction:
		return "action"
	case NodeAgentDelegation:
		return "agent"
	case NodeDecision:
		return "decision"
	case NodeDelay:
		return "delay"
	case NodeTerminator:
		return "end"
	default:
		return "unknown"
	}
}

func (t NodeType) Valid() bool {
	return t >= NodeTrigger && t <= NodeTerminator
}

func ParseNodeType(tag string) (NodeType, error) {
	switch tag {
	case "trigger":
		return NodeTrigger, nil
	case "condition":
		return NodeCondition, nil
	case "action":
		return NodeAction, nil
	case "agent":
		return NodeAgentDelegation, nil
	case "decision":
		return NodeDecision, nil
	case "delay":
		return NodeDelay, nil
	case "end":
		return NodeTerminator, nil
	default:
		return 0, &ConfigurationError{Reason: fmt.Sprintf("unknown node type %q", tag)}
	}
}

func (t NodeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown node type %d", int(t))}
	}
	return []byte(t.String()), nil
}

func (t *NodeType) UnmarshalText(b []byte) error {
	parsed, err := ParseNodeType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NodeStatus é flag do editor, não estado de execução
type NodeStatus int

const (
	StatusActive NodeStatus = iota
	StatusInactive
	StatusError
)

func (s NodeStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func ParseNodeStatus(tag string) (NodeStatus, error) {
	switch tag {
	case "active":
		return StatusActive, nil
	case "inactive":
		return StatusInactive, nil
	case "error":
		return StatusError, nil
	default:
		return 0, fmt.Errorf("unknown node status %q", tag)
	}
}

func (s NodeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *NodeStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseNodeStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Position só afeta renderização
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config é o mapa chave/valor específico do tipo.
// Sempre guardado com valores JSON-nativos (ver normalizeConfig).
type Config map[string]any

// Node é um passo do grafo. Connections guarda só as arestas de saída.
type Node struct {
	ID          string     `json:"id"`
	Type        NodeType   `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Config      Config     `json:"config"`
	Position    Position   `json:"position"`
	Status      NodeStatus `json:"status"`
	Connections []string   `json:"connections"`
}

// HasConnection indica se target já está na lista de saída
func (n Node) HasConnection(target string) bool {
	return slices.Contains(n.Connections, target)
}

func (n Node) clone() Node {
	out := n
	out.Config = cloneConfig(n.Config)
	if len(n.Connections) == 0 {
		out.Connections = nil
	} else {
		out.Connections = slices.Clone(n.Connections)
	}
	return out
}

// TriggerKind: como o grafo é invocado externamente
type TriggerKind string

const (
	TriggerTime    TriggerKind = "time"
	TriggerEvent   TriggerKind = "event"
	TriggerWebhook TriggerKind = "webhook"
	TriggerManual  TriggerKind = "manual"
)

func (k TriggerKind) Valid() bool {
	switch k {
	case TriggerTime, TriggerEvent, TriggerWebhook, TriggerManual:
		return true
	default:
		return false
	}
}

// TriggerDecl é independente dos nós Trigger presentes no grafo
type TriggerDecl struct {
	Type   TriggerKind `json:"type"`
	Config Config      `json:"config"`
}

func (d TriggerDecl) clone() TriggerDecl {
	return TriggerDecl{Type: d.Type, Config: cloneConfig(d.Config)}
}

// normalizeConfig converte para valores JSON-nativos (float64, string, bool,
// []any, map[string]any). Serve também de deep copy.
func normalizeConfig(c map[string]any) (Config, error) {
	if len(c) == 0 {
		return Config{}, nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	}
	out := Config{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	}
	return out, nil
}

// cloneConfig assume config já normalizada
func cloneConfig(c Config) Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(tv))
		for k, inner := range tv {
			m[k] = cloneValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(tv))
		for i, inner := range tv {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}
