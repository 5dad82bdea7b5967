package domain

import (
	"fmt"
	"slices"
)

// FieldKind é o tipo primitivo JSON esperado num campo de config
type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindBool   FieldKind = "bool"
	KindObject FieldKind = "object"
	KindArray  FieldKind = "array"
	KindAny    FieldKind = "any"
)

// FieldSpec descreve um campo de config. Path é um path gjson ("retry.max").
type FieldSpec struct {
	Path        string    `json:"path"`
	Kind        FieldKind `json:"kind"`
	Required    bool      `json:"required"`
	Enum        []string  `json:"enum,omitempty"`
	Positive    bool      `json:"positive,omitempty"`
	Roster      bool      `json:"roster,omitempty"` // valor precisa existir no roster de agentes
	Description string    `json:"description,omitempty"`
}

// Schema de um tipo de nó
type Schema struct {
	Type   NodeType    `json:"type"`
	Label  string      `json:"label"`
	Fields []FieldSpec `json:"fields"`
}

// ActionTemplate declara os campos exigidos por uma ação pré-definida
type ActionTemplate struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Fields      []FieldSpec `json:"fields"`
}

// AgentRoster responde se um agentId é conhecido
type AgentRoster interface {
	HasAgent(id string) bool
}

// Registry é a tabela de lookup tipo -> schema/default. Sem mutação depois de criada.
type Registry struct {
	roster  AgentRoster
	actions []ActionTemplate
}

func NewRegistry(roster AgentRoster) *Registry {
	return &Registry{
		roster:  roster,
		actions: builtinActions(),
	}
}

func builtinActions() []ActionTemplate {
	str := func(path string) FieldSpec {
		return FieldSpec{Path: path, Kind: KindString, Required: true}
	}
	return []ActionTemplate{
		{
			ID:          "send_email",
			Name:        "Send email",
			Description: "Send an email through the workspace mailbox",
			Fields:      []FieldSpec{str("to"), str("subject"), str("body")},
		},
		{
			ID:          "post_slack",
			Name:        "Post to Slack",
			Description: "Post a message to a Slack channel",
			Fields:      []FieldSpec{str("channel"), str("message")},
		},
		{
			ID:          "http_request",
			Name:        "HTTP request",
			Description: "Call an external HTTP endpoint",
			Fields: []FieldSpec{
				str("url"),
				{Path: "method", Kind: KindString, Required: true, Enum: []string{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			},
		},
		{
			ID:          "create_task",
			Name:        "Create task",
			Description: "Create a task in the team board",
			Fields:      []FieldSpec{str("title")},
		},
		{
			ID:          "update_crm",
			Name:        "Update CRM record",
			Description: "Update fields of a CRM record",
			Fields: []FieldSpec{
				str("recordId"),
				{Path: "fields", Kind: KindObject, Required: true},
			},
		},
	}
}

// SchemaFor devolve o schema do tipo. Tipo fora do conjunto fechado é ConfigurationError.
func (r *Registry) SchemaFor(t NodeType) (Schema, error) {
	switch t {
	case NodeTrigger:
		return Schema{Type: t, Label: "Trigger", Fields: []FieldSpec{
			{Path: "triggerType", Kind: KindString, Required: true, Enum: []string{"time", "event", "webhook", "manual"}},
			{Path: "schedule", Kind: KindString, Description: "cron expression for time triggers"},
			{Path: "timezone", Kind: KindString},
			{Path: "event", Kind: KindString},
			{Path: "webhookPath", Kind: KindString},
		}}, nil
	case NodeCondition:
		return Schema{Type: t, Label: "Condition", Fields: []FieldSpec{
			{Path: "expression", Kind: KindString, Required: true},
			{Path: "operator", Kind: KindString, Enum: []string{"eq", "neq", "gt", "lt", "contains"}},
			{Path: "value", Kind: KindAny},
		}}, nil
	case NodeAction:
		return Schema{Type: t, Label: "Action", Fields: []FieldSpec{
			{Path: "actionTemplateId", Kind: KindString, Required: true},
		}}, nil
	case NodeAgentDelegation:
		return Schema{Type: t, Label: "Agent", Fields: []FieldSpec{
			{Path: "agentId", Kind: KindString, Required: true, Roster: true},
			{Path: "task", Kind: KindString, Required: true},
			{Path: "priority", Kind: KindString, Enum: []string{"low", "normal", "high"}},
			{Path: "timeoutMs", Kind: KindNumber, Positive: true},
		}}, nil
	case NodeDecision:
		return Schema{Type: t, Label: "Decision", Fields: []FieldSpec{
			{Path: "criteria", Kind: KindString, Required: true},
			{Path: "options", Kind: KindArray},
		}}, nil
	case NodeDelay:
		return Schema{Type: t, Label: "Delay", Fields: []FieldSpec{
			{Path: "durationMs", Kind: KindNumber, Required: true, Positive: true},
		}}, nil
	case NodeTerminator:
		return Schema{Type: t, Label: "End", Fields: []FieldSpec{
			{Path: "outcome", Kind: KindString},
		}}, nil
	default:
		return Schema{}, &ConfigurationError{Reason: fmt.Sprintf("unknown node type %d", int(t))}
	}
}

// DefaultConfigFor devolve uma config nova a cada chamada
func (r *Registry) DefaultConfigFor(t NodeType) (Config, error) {
	switch t {
	case NodeTrigger:
		return Config{"triggerType": "manual"}, nil
	case NodeCondition:
		return Config{"expression": "", "operator": "eq"}, nil
	case NodeAction:
		return Config{"actionTemplateId": ""}, nil
	case NodeAgentDelegation:
		return Config{"agentId": "", "task": "", "priority": "normal"}, nil
	case NodeDecision:
		return Config{"criteria": "", "options": []any{}}, nil
	case NodeDelay:
		return Config{"durationMs": float64(60000)}, nil
	case NodeTerminator:
		return Config{}, nil
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown node type %d", int(t))}
	}
}

// Catalog lista os schemas de todos os tipos, na ordem da paleta
func (r *Registry) Catalog() []Schema {
	out := make([]Schema, 0, len(AllNodeTypes))
	for _, t := range AllNodeTypes {
		s, err := r.SchemaFor(t)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *Registry) ActionTemplates() []ActionTemplate {
	return slices.Clone(r.actions)
}

func (r *Registry) ActionTemplate(id string) (ActionTemplate, bool) {
	for _, a := range r.actions {
		if a.ID == id {
			return a, true
		}
	}
	return ActionTemplate{}, false
}

// KnownAgent consulta o roster; sem roster nenhum agente é válido
func (r *Registry) KnownAgent(id string) bool {
	if r.roster == nil {
		return false
	}
	return r.roster.HasAgent(id)
}
