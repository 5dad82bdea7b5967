// Package wire converte entre o documento JSON do backend (pkg/types) e o
// domain.Graph. Conexões pendentes são aceitas; quem reporta é o Validator.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

// ToWire nunca falha: o domain só guarda valores JSON-nativos
func ToWire(g domain.Graph) types.Graph {
	meta := g.Meta()
	out := types.Graph{
		ID:          meta.ID,
		Name:        meta.Name,
		Description: meta.Description,
		Category:    meta.Category,
		Nodes:       make([]types.Node, 0, g.Len()),
		Triggers:    []types.Trigger{},
		Variables:   g.Variables(),
	}

	for _, n := range g.Nodes() {
		conns := n.Connections
		if conns == nil {
			conns = []string{}
		}
		out.Nodes = append(out.Nodes, types.Node{
			ID:          n.ID,
			Type:        n.Type.String(),
			Name:        n.Name,
			Description: n.Description,
			Config:      map[string]any(n.Config),
			Position:    types.Position{X: n.Position.X, Y: n.Position.Y},
			Connections: conns,
			Status:      n.Status.String(),
		})
	}

	for _, t := range g.Triggers() {
		out.Triggers = append(out.Triggers, types.Trigger{
			Type:   string(t.Type),
			Config: map[string]any(t.Config),
		})
	}
	return out
}

// FromWire valida tags e monta o snapshot. Status ausente vira active.
func FromWire(doc types.Graph) (domain.Graph, error) {
	nodes := make([]domain.Node, 0, len(doc.Nodes))
	for i, wn := range doc.Nodes {
		path := fmt.Sprintf("nodes.%d", i)
		if wn.ID == "" {
			return domain.Graph{}, &domain.SerializationError{Path: path + ".id", Reason: "node id is required"}
		}

		nt, err := domain.ParseNodeType(wn.Type)
		if err != nil {
			var cfgErr *domain.ConfigurationError
			if errors.As(err, &cfgErr) {
				cfgErr.NodeID = wn.ID
			}
			return domain.Graph{}, &domain.SerializationError{Path: path + ".type", Reason: "unknown node type", Err: err}
		}

		status := domain.StatusActive
		if wn.Status != "" {
			status, err = domain.ParseNodeStatus(wn.Status)
			if err != nil {
				return domain.Graph{}, &domain.SerializationError{Path: path + ".status", Reason: "unknown node status", Err: err}
			}
		}

		nodes = append(nodes, domain.Node{
			ID:          wn.ID,
			Type:        nt,
			Name:        wn.Name,
			Description: wn.Description,
			Config:      domain.Config(wn.Config),
			Position:    domain.Position{X: wn.Position.X, Y: wn.Position.Y},
			Status:      status,
			Connections: wn.Connections,
		})
	}

	triggers := make([]domain.TriggerDecl, 0, len(doc.Triggers))
	for i, wt := range doc.Triggers {
		kind := domain.TriggerKind(wt.Type)
		if !kind.Valid() {
			return domain.Graph{}, &domain.SerializationError{
				Path:   fmt.Sprintf("triggers.%d.type", i),
				Reason: fmt.Sprintf("unknown trigger type %q", wt.Type),
			}
		}
		triggers = append(triggers, domain.TriggerDecl{Type: kind, Config: domain.Config(wt.Config)})
	}

	g, err := domain.NewGraph(domain.Meta{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    doc.Category,
	}, nodes, triggers, doc.Variables)
	if err != nil {
		return domain.Graph{}, &domain.SerializationError{Reason: "invalid graph", Err: err}
	}
	return g, nil
}

// Decode aceita o JSON do backend; tipos primitivos errados são SerializationError
func Decode(data []byte) (domain.Graph, error) {
	if !gjson.ValidBytes(data) {
		return domain.Graph{}, &domain.SerializationError{Reason: "invalid JSON"}
	}
	if !gjson.ParseBytes(data).IsObject() {
		return domain.Graph{}, &domain.SerializationError{Reason: "workflow document must be a JSON object"}
	}

	var doc types.Graph
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return domain.Graph{}, &domain.SerializationError{
				Path:   typeErr.Field,
				Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
				Err:    err,
			}
		}
		return domain.Graph{}, &domain.SerializationError{Reason: "decode workflow", Err: err}
	}
	return FromWire(doc)
}

func Encode(g domain.Graph) ([]byte, error) {
	data, err := json.Marshal(ToWire(g))
	if err != nil {
		return nil, &domain.SerializationError{Reason: "encode workflow", Err: err}
	}
	return data, nil
}

// EncodeDraft grava o grafo junto com o id remoto (vazio se nunca salvo)
func EncodeDraft(g domain.Graph, remoteID string) ([]byte, error) {
	data, err := json.Marshal(types.Draft{RemoteID: remoteID, Graph: ToWire(g)})
	if err != nil {
		return nil, &domain.SerializationError{Reason: "encode draft", Err: err}
	}
	return data, nil
}

// DecodeDraft lê o envelope de rascunho. Um documento de workflow puro
// (sem "graph") também é aceito, com id remoto vazio.
func DecodeDraft(data []byte) (domain.Graph, string, error) {
	if !gjson.ValidBytes(data) {
		return domain.Graph{}, "", &domain.SerializationError{Reason: "invalid JSON"}
	}
	doc := gjson.ParseBytes(data)
	inner := doc.Get("graph")
	if !inner.Exists() {
		g, err := Decode(data)
		return g, "", err
	}

	remote := doc.Get("remote_id")
	if remote.Exists() && remote.Type != gjson.String {
		return domain.Graph{}, "", &domain.SerializationError{Path: "remote_id", Reason: "expected string"}
	}
	g, err := Decode([]byte(inner.Raw))
	if err != nil {
		return domain.Graph{}, "", err
	}
	return g, remote.String(), nil
}
