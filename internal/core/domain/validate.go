package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// Mode define o rigor da validação
type Mode int

const (
	// Draft: só invariantes estruturais (1-3), suficiente para salvar
	Draft Mode = iota
	// Runnable: pré-condição completa para execução
	Runnable
)

func (m Mode) String() string {
	if m == Runnable {
		return "runnable"
	}
	return "draft"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "draft":
		return Draft, nil
	case "runnable", "run":
		return Runnable, nil
	default:
		return Draft, fmt.Errorf("unknown validation mode %q", s)
	}
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifica a regra que gerou o diagnóstico
type Rule string

const (
	RuleDuplicateID        Rule = "duplicate_id"
	RuleDanglingConnection Rule = "dangling_connection"
	RuleSelfLoop           Rule = "self_loop"
	RuleMissingTrigger     Rule = "missing_trigger"
	RuleUnreachable        Rule = "unreachable"
	RuleNoOutgoing         Rule = "no_outgoing"
	RuleImplicitTerminator Rule = "implicit_terminator"
	RuleMissingTerminator  Rule = "missing_terminator"
	RuleCycle              Rule = "cycle"
	RuleConfig             Rule = "config"
)

type Diagnostic struct {
	Rule     Rule     `json:"rule"`
	NodeIDs  []string `json:"nodeIds,omitempty"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// Err converte o diagnóstico para o erro tipado correspondente
func (d Diagnostic) Err() error {
	first := ""
	if len(d.NodeIDs) > 0 {
		first = d.NodeIDs[0]
	}
	switch d.Rule {
	case RuleDanglingConnection:
		target := ""
		if len(d.NodeIDs) > 1 {
			target = d.NodeIDs[1]
		}
		return &ReferenceError{SourceID: first, TargetID: target}
	case RuleSelfLoop:
		return &SelfLoopError{NodeID: first}
	case RuleConfig:
		return &ConfigurationError{NodeID: first, Field: d.Field, Reason: d.Message}
	default:
		return &StructureError{Rule: d.Rule, NodeIDs: slices.Clone(d.NodeIDs), Message: d.Message}
	}
}

type Diagnostics []Diagnostic

func (ds Diagnostics) HasErrors() bool {
	return slices.ContainsFunc(ds, func(d Diagnostic) bool { return d.Severity == SeverityError })
}

func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Validator é puro: devolve dados, nunca erro
type Validator struct {
	registry *Registry
}

func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

func (v *Validator) Validate(g Graph, mode Mode) Diagnostics {
	var out Diagnostics

	out = append(out, checkDuplicateIDs(g)...)
	out = append(out, checkDangling(g)...)
	out = append(out, checkSelfLoops(g)...)

	if mode == Draft {
		return out
	}

	triggers := g.NodesOfType(NodeTrigger)
	if len(triggers) == 0 {
		out = append(out, Diagnostic{
			Rule:     RuleMissingTrigger,
			Severity: SeverityError,
			Message:  "workflow needs at least one trigger node",
		})
	} else {
		out = append(out, checkStructure(g, triggers)...)
	}
	out = append(out, checkCycles(g)...)

	for _, n := range g.nodes {
		out = append(out, v.checkConfig(n)...)
	}
	return out
}

func checkDuplicateIDs(g Graph) Diagnostics {
	var out Diagnostics
	seen := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			out = append(out, Diagnostic{
				Rule:     RuleDuplicateID,
				NodeIDs:  []string{n.ID},
				Severity: SeverityError,
				Message:  fmt.Sprintf("node id %s is used more than once", n.ID),
			})
		}
	}
	return out
}

func checkDangling(g Graph) Diagnostics {
	var out Diagnostics
	for _, n := range g.nodes {
		for _, c := range n.Connections {
			if g.Has(c) {
				continue
			}
			out = append(out, Diagnostic{
				Rule:     RuleDanglingConnection,
				NodeIDs:  []string{n.ID, c},
				Severity: SeverityError,
				Message:  fmt.Sprintf("node %s connects to missing node %s", n.ID, c),
			})
		}
	}
	return out
}

func checkSelfLoops(g Graph) Diagnostics {
	var out Diagnostics
	for _, n := range g.nodes {
		if n.HasConnection(n.ID) {
			out = append(out, Diagnostic{
				Rule:     RuleSelfLoop,
				NodeIDs:  []string{n.ID},
				Severity: SeverityError,
				Message:  fmt.Sprintf("node %s connects to itself", n.ID),
			})
		}
	}
	return out
}

// checkStructure: alcançabilidade a partir dos triggers e terminadores.
// Um nó sem saída é terminador estrutural qualquer que seja o tipo declarado.
func checkStructure(g Graph, triggers []Node) Diagnostics {
	var out Diagnostics

	reached := make(map[string]bool, len(g.nodes))
	queue := make([]string, 0, len(g.nodes))
	for _, t := range triggers {
		if !reached[t.ID] {
			reached[t.ID] = true
			queue = append(queue, t.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range g.Outgoing(id) {
			if !g.Has(next) || reached[next] {
				continue
			}
			reached[next] = true
			queue = append(queue, next)
		}
	}

	terminators := 0
	for _, n := range g.nodes {
		if !reached[n.ID] {
			out = append(out, Diagnostic{
				Rule:     RuleUnreachable,
				NodeIDs:  []string{n.ID},
				Severity: SeverityError,
				Message:  fmt.Sprintf("%s node %s is not reachable from any trigger", n.Type, n.ID),
			})
			continue
		}
		if len(n.Connections) > 0 {
			continue
		}
		switch n.Type {
		case NodeTrigger:
			out = append(out, Diagnostic{
				Rule:     RuleNoOutgoing,
				NodeIDs:  []string{n.ID},
				Severity: SeverityError,
				Message:  fmt.Sprintf("trigger %s has no outgoing connection", n.ID),
			})
		case NodeTerminator:
			terminators++
		default:
			terminators++
			out = append(out, Diagnostic{
				Rule:     RuleImplicitTerminator,
				NodeIDs:  []string{n.ID},
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("%s node %s has no outgoing connection and ends the workflow", n.Type, n.ID),
			})
		}
	}

	if terminators == 0 {
		out = append(out, Diagnostic{
			Rule:     RuleMissingTerminator,
			Severity: SeverityError,
			Message:  "no reachable node ends the workflow",
		})
	}
	return out
}

// checkCycles: DFS com três estados; reporta cada ciclo pelo caminho encontrado
func checkCycles(g Graph) Diagnostics {
	const (
		unvisited = iota
		visiting
		visited
	)

	var out Diagnostics
	state := make(map[string]int, len(g.nodes))
	var path []string

	var dfs func(id string)
	dfs = func(id string) {
		state[id] = visiting
		path = append(path, id)
		for _, next := range g.Outgoing(id) {
			// self-loop e conexão pendente já foram reportados
			if next == id || !g.Has(next) {
				continue
			}
			switch state[next] {
			case visiting:
				start := slices.Index(path, next)
				cycle := slices.Clone(path[start:])
				out = append(out, Diagnostic{
					Rule:     RuleCycle,
					NodeIDs:  cycle,
					Severity: SeverityError,
					Message:  fmt.Sprintf("connections form a cycle: %s -> %s", strings.Join(cycle, " -> "), next),
				})
			case unvisited:
				dfs(next)
			}
		}
		path = path[:len(path)-1]
		state[id] = visited
	}

	for _, id := range g.NodeIDs() {
		if state[id] == unvisited {
			dfs(id)
		}
	}
	return out
}

// checkConfig: um diagnóstico por campo ausente ou inválido
func (v *Validator) checkConfig(n Node) Diagnostics {
	schema, err := v.registry.SchemaFor(n.Type)
	if err != nil {
		return Diagnostics{{
			Rule:     RuleConfig,
			NodeIDs:  []string{n.ID},
			Severity: SeverityError,
			Field:    "type",
			Message:  err.Error(),
		}}
	}

	raw, err := json.Marshal(n.Config)
	if err != nil {
		return Diagnostics{{
			Rule:     RuleConfig,
			NodeIDs:  []string{n.ID},
			Severity: SeverityError,
			Message:  fmt.Sprintf("config is not encodable: %v", err),
		}}
	}
	doc := gjson.ParseBytes(raw)

	out := v.checkFields(n.ID, doc, schema.Fields)

	if n.Type == NodeAction {
		tplID := doc.Get("actionTemplateId")
		if tplID.Type == gjson.String && tplID.Str != "" {
			tpl, ok := v.registry.ActionTemplate(tplID.Str)
			if !ok {
				out = append(out, configDiag(n.ID, "actionTemplateId", fmt.Sprintf("unknown action template %q", tplID.Str)))
			} else {
				out = append(out, v.checkFields(n.ID, doc, tpl.Fields)...)
			}
		}
	}
	return out
}

func (v *Validator) checkFields(nodeID string, doc gjson.Result, fields []FieldSpec) Diagnostics {
	var out Diagnostics
	for _, f := range fields {
		val := doc.Get(f.Path)
		if isMissing(val) {
			if f.Required {
				out = append(out, configDiag(nodeID, f.Path, "required field is missing"))
			}
			continue
		}
		if !kindMatches(f.Kind, val) {
			out = append(out, configDiag(nodeID, f.Path, fmt.Sprintf("expected %s, got %s", f.Kind, describe(val))))
			continue
		}
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, val.String()) {
			out = append(out, configDiag(nodeID, f.Path, fmt.Sprintf("must be one of %s", strings.Join(f.Enum, ", "))))
		}
		if f.Positive && val.Num <= 0 {
			out = append(out, configDiag(nodeID, f.Path, "must be a positive number"))
		}
		if f.Roster && !v.registry.KnownAgent(val.Str) {
			out = append(out, configDiag(nodeID, f.Path, fmt.Sprintf("unknown agent %q", val.Str)))
		}
	}
	return out
}

func configDiag(nodeID, field, msg string) Diagnostic {
	return Diagnostic{
		Rule:     RuleConfig,
		NodeIDs:  []string{nodeID},
		Severity: SeverityError,
		Field:    field,
		Message:  msg,
	}
}

// string vazia conta como ausente
func isMissing(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return true
	}
	return v.Type == gjson.String && strings.TrimSpace(v.Str) == ""
}

func kindMatches(k FieldKind, v gjson.Result) bool {
	switch k {
	case KindString:
		return v.Type == gjson.String
	case KindNumber:
		return v.Type == gjson.Number
	case KindBool:
		return v.Type == gjson.True || v.Type == gjson.False
	case KindObject:
		return v.IsObject()
	case KindArray:
		return v.IsArray()
	default:
		return true
	}
}

func describe(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	case v.Type == gjson.True || v.Type == gjson.False:
		return "bool"
	case v.Type == gjson.Number:
		return "number"
	case v.Type == gjson.String:
		return "string"
	default:
		return v.Type.String()
	}
}

// AsError junta os diagnósticos de erro num único error (nil se não houver)
func (ds Diagnostics) AsError() error {
	errs := ds.Errors()
	if len(errs) == 0 {
		return nil
	}
	wrapped := make([]error, 0, len(errs))
	for _, d := range errs {
		wrapped = append(wrapped, d.Err())
	}
	return errors.Join(wrapped...)
}
