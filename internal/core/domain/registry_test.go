package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EveryTypeHasSchemaAndDefault(t *testing.T) {
	r := testRegistry()
	v := NewValidator(r)

	for _, nt := range AllNodeTypes {
		t.Run(nt.String(), func(t *testing.T) {
			s, err := r.SchemaFor(nt)
			require.NoError(t, err)
			assert.Equal(t, nt, s.Type)

			cfg, err := r.DefaultConfigFor(nt)
			require.NoError(t, err)
			assert.NotNil(t, cfg)

			// defaults só podem falhar em campos obrigatórios, nunca em tipo
			for _, d := range v.checkConfig(Node{ID: "x", Type: nt, Config: cfg}) {
				assert.Contains(t, d.Message, "required", "%s default violates %s", nt, d.Field)
			}
		})
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	r := testRegistry()

	_, err := r.SchemaFor(NodeType(99))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = r.DefaultConfigFor(NodeType(-1))
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = ParseNodeType("loop")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRegistry_DefaultConfigIsFresh(t *testing.T) {
	r := testRegistry()
	a, _ := r.DefaultConfigFor(NodeAgentDelegation)
	a["agentId"] = "mutated"
	b, _ := r.DefaultConfigFor(NodeAgentDelegation)
	assert.Equal(t, "", b["agentId"])
}

func TestRegistry_CatalogAndActions(t *testing.T) {
	r := testRegistry()

	catalog := r.Catalog()
	require.Len(t, catalog, len(AllNodeTypes))

	raw, err := json.Marshal(catalog[3])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"agent"`)

	ids := []string{}
	for _, a := range r.ActionTemplates() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"send_email", "post_slack", "http_request", "create_task", "update_crm"}, ids)

	tpl, ok := r.ActionTemplate("update_crm")
	require.True(t, ok)
	assert.Len(t, tpl.Fields, 2)

	assert.True(t, r.KnownAgent("writer-agent"))
	assert.False(t, NewRegistry(nil).KnownAgent("writer-agent"))
}

func TestNodeType_TagsRoundTrip(t *testing.T) {
	for _, nt := range AllNodeTypes {
		parsed, err := ParseNodeType(nt.String())
		require.NoError(t, err)
		assert.Equal(t, nt, parsed)
	}
	assert.Equal(t, "agent", NodeAgentDelegation.String())
	assert.Equal(t, "end", NodeTerminator.String())
}

func TestGraph_ValueSemantics(t *testing.T) {
	g, err := NewGraph(Meta{ID: "wf", Name: "n"}, []Node{
		{ID: "a", Type: NodeTrigger, Config: Config{"triggerType": "manual", "retries": 2}, Connections: []string{"b"}},
		{ID: "b", Type: NodeTerminator},
	}, []TriggerDecl{{Type: TriggerManual}}, nil)
	require.NoError(t, err)

	n, ok := g.Node("a")
	require.True(t, ok)
	assert.Equal(t, float64(2), n.Config["retries"], "config normalized to JSON numbers")

	n.Config["triggerType"] = "time"
	n.Connections[0] = "zzz"
	again, _ := g.Node("a")
	assert.Equal(t, "manual", again.Config["triggerType"])
	assert.Equal(t, []string{"b"}, g.Outgoing("a"))

	vars := g.Variables()
	vars["x"] = 1
	assert.Empty(t, g.Variables())

	_, ok = g.Node("missing")
	assert.False(t, ok)
	assert.Nil(t, g.Outgoing("missing"))
	assert.Equal(t, []string{"a"}, g.Incoming("b"))
}
