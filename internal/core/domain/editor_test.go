package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRoster map[string]bool

func (r staticRoster) HasAgent(id string) bool { return r[id] }

func testRegistry() *Registry {
	return NewRegistry(staticRoster{"research-agent": true, "writer-agent": true})
}

// ids previsíveis: n1, n2, ...
func seqEditor() *Editor {
	i := 0
	return NewEditor(testRegistry()).WithIDGenerator(func() string {
		i++
		return fmt.Sprintf("n%d", i)
	})
}

func TestEditor_NewBlank(t *testing.T) {
	e := seqEditor()
	g := e.NewBlank(Meta{Name: "Blank"})

	require.Equal(t, 2, g.Len())
	nodes := g.Nodes()
	assert.Equal(t, NodeTrigger, nodes[0].Type)
	assert.Equal(t, NodeTerminator, nodes[1].Type)
	assert.Empty(t, nodes[0].Connections)
	assert.Empty(t, nodes[1].Connections)
	assert.NotEmpty(t, g.ID())
	assert.Equal(t, "manual", nodes[0].Config["triggerType"])
}

func TestEditor_CreateNode(t *testing.T) {
	e := seqEditor()
	g := e.NewBlank(Meta{ID: "wf"})

	g2, id := e.CreateNode(g, NodeDelay, Position{X: 10, Y: 20})

	assert.Equal(t, 2, g.Len(), "input must not change")
	require.Equal(t, 3, g2.Len())
	n, ok := g2.Node(id)
	require.True(t, ok)
	assert.Equal(t, NodeDelay, n.Type)
	assert.Equal(t, Position{X: 10, Y: 20}, n.Position)
	assert.Equal(t, float64(60000), n.Config["durationMs"])
	assert.Equal(t, StatusActive, n.Status)
	assert.Equal(t, id, g2.NodeIDs()[2], "appended at the end")
}

func TestEditor_Connect(t *testing.T) {
	e := seqEditor()
	g := e.NewBlank(Meta{ID: "wf"})
	trig, end := g.NodeIDs()[0], g.NodeIDs()[1]

	t.Run("idempotent", func(t *testing.T) {
		once, err := e.Connect(g, trig, end)
		require.NoError(t, err)
		twice, err := e.Connect(once, trig, end)
		require.NoError(t, err)

		assert.Equal(t, []string{end}, twice.Outgoing(trig))
		assert.True(t, once.Equal(twice))
		assert.Empty(t, g.Outgoing(trig), "input must not change")
	})

	t.Run("self loop", func(t *testing.T) {
		out, err := e.Connect(g, trig, trig)
		var loop *SelfLoopError
		require.ErrorAs(t, err, &loop)
		assert.Equal(t, trig, loop.NodeID)
		assert.ErrorIs(t, err, ErrSelfLoop)
		assert.True(t, out.Equal(g))
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := e.Connect(g, trig, "ghost")
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "ghost", nf.NodeID)
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := e.Connect(g, "ghost", end)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("incoming derived", func(t *testing.T) {
		out, err := e.Connect(g, trig, end)
		require.NoError(t, err)
		assert.Equal(t, []string{trig}, out.Incoming(end))
		assert.Empty(t, out.Incoming(trig))
	})
}

func TestEditor_Disconnect(t *testing.T) {
	e := seqEditor()
	g := e.NewBlank(Meta{ID: "wf"})
	trig, end := g.NodeIDs()[0], g.NodeIDs()[1]

	connected, err := e.Connect(g, trig, end)
	require.NoError(t, err)

	out, err := e.Disconnect(connected, trig, end)
	require.NoError(t, err)
	assert.Empty(t, out.Outgoing(trig))
	assert.Equal(t, []string{end}, connected.Outgoing(trig))

	noop, err := e.Disconnect(out, trig, end)
	require.NoError(t, err)
	assert.True(t, noop.Equal(out))

	_, err = e.Disconnect(out, "ghost", end)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditor_DeleteNodeCascades(t *testing.T) {
	e := seqEditor()
	g := e.NewBlank(Meta{ID: "wf"})
	trig, end := g.NodeIDs()[0], g.NodeIDs()[1]

	g, mid := e.CreateNode(g, NodeAgentDelegation, Position{})
	g, other := e.CreateNode(g, NodeDelay, Position{})
	for _, edge := range [][2]string{{trig, mid}, {mid, end}, {trig, other}, {other, mid}} {
		var err error
		g, err = e.Connect(g, edge[0], edge[1])
		require.NoError(t, err)
	}

	out, err := e.DeleteNode(g, mid)
	require.NoError(t, err)

	assert.False(t, out.Has(mid))
	assert.Equal(t, 3, out.Len())
	for _, n := range out.Nodes() {
		assert.NotContains(t, n.Connections, mid, "node %s still references deleted node", n.ID)
	}
	assert.Equal(t, []string{other}, out.Outgoing(trig))
	assert.Empty(t, out.Outgoing(other))
	assert.True(t, g.Has(mid), "input must not change")

	_, err = e.DeleteNode(out, mid)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditor_UpdateNode(t *testing.T) {
	e := seqEditor()
	g := e.NewBlank(Meta{ID: "wf"})
	g, agent := e.CreateNode(g, NodeAgentDelegation, Position{})

	name := "Research"
	inactive := StatusInactive
	out, err := e.UpdateNode(g, agent, NodePatch{
		Name:        &name,
		Status:      &inactive,
		Config:      map[string]any{"agentId": "research-agent"},
		ConfigPaths: map[string]any{"retry.max": 3},
	})
	require.NoError(t, err)

	n, _ := out.Node(agent)
	assert.Equal(t, "Research", n.Name)
	assert.Equal(t, StatusInactive, n.Status)
	assert.Equal(t, "research-agent", n.Config["agentId"])
	assert.Equal(t, "normal", n.Config["priority"], "untouched keys are kept")
	assert.Equal(t, map[string]any{"max": float64(3)}, n.Config["retry"])

	before, _ := g.Node(agent)
	assert.Equal(t, "", before.Config["agentId"])

	t.Run("no schema check", func(t *testing.T) {
		_, err := e.UpdateNode(g, agent, NodePatch{Config: map[string]any{"timeoutMs": "soon"}})
		assert.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := e.UpdateNode(g, "ghost", NodePatch{Name: &name})
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
	})
}

func TestEditor_SetPosition(t *testing.T) {
	e := seqEditor()
	g := e.NewBlank(Meta{ID: "wf"})
	id := g.NodeIDs()[0]

	out, err := e.SetPosition(g, id, Position{X: 42, Y: -7})
	require.NoError(t, err)
	n, _ := out.Node(id)
	assert.Equal(t, Position{X: 42, Y: -7}, n.Position)

	_, err = e.SetPosition(g, "ghost", Position{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEditor_Reidentify(t *testing.T) {
	e := seqEditor()
	g := e.NewBlank(Meta{ID: "wf"})
	trig, end := g.NodeIDs()[0], g.NodeIDs()[1]
	g, err := e.Connect(g, trig, end)
	require.NoError(t, err)

	out := e.Reidentify(g)

	assert.NotEqual(t, g.ID(), out.ID())
	ids := out.NodeIDs()
	assert.NotContains(t, ids, trig)
	assert.NotContains(t, ids, end)
	assert.Equal(t, []string{ids[1]}, out.Outgoing(ids[0]))
}

func TestEditor_ReidentifyRewritesReferences(t *testing.T) {
	e := seqEditor()
	g, err := NewGraph(Meta{ID: "wf"}, []Node{
		{ID: "write", Type: NodeAgentDelegation, Connections: []string{"send"}},
		{ID: "send", Type: NodeAction, Config: Config{
			"body":    "{{write.output}}",
			"subject": "{{writer.name}} {{variables.topic}}",
			"cc":      []any{"{{write.author}}", 3},
			"meta":    map[string]any{"note": "from {{write.output}}"},
		}},
	}, nil, nil)
	require.NoError(t, err)

	out := e.Reidentify(g)
	ids := out.NodeIDs()
	send, ok := out.Node(ids[1])
	require.True(t, ok)

	assert.Equal(t, "{{"+ids[0]+".output}}", send.Config["body"])
	assert.Equal(t, "{{writer.name}} {{variables.topic}}", send.Config["subject"], "other names untouched")
	assert.Equal(t, []any{"{{" + ids[0] + ".author}}", float64(3)}, send.Config["cc"])
	assert.Equal(t, map[string]any{"note": "from {{" + ids[0] + ".output}}"}, send.Config["meta"])

	orig, _ := g.Node("send")
	assert.Equal(t, "{{write.output}}", orig.Config["body"], "source graph untouched")
}

func TestEditor_UpdateMeta(t *testing.T) {
	e := seqEditor()
	g := e.NewBlank(Meta{ID: "wf", Name: "old"})

	name := "new"
	triggers := []TriggerDecl{{Type: TriggerTime, Config: Config{"schedule": "0 9 * * *"}}}
	out, err := e.UpdateMeta(g, MetaPatch{Name: &name, Triggers: &triggers, Variables: map[string]any{"region": "eu"}})
	require.NoError(t, err)

	assert.Equal(t, "new", out.Name())
	assert.Equal(t, "old", g.Name())
	require.Len(t, out.Triggers(), 1)
	assert.Equal(t, "eu", out.Variables()["region"])

	bad := []TriggerDecl{{Type: "cron"}}
	_, err = e.UpdateMeta(g, MetaPatch{Triggers: &bad})
	assert.ErrorIs(t, err, ErrConfiguration)
}
