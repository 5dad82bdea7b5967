package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)

	list := r.List()
	require.Len(t, list, 5)
	assert.Equal(t, "research-agent", list[0].ID)
	assert.True(t, r.HasAgent("writer-agent"))
	assert.False(t, r.HasAgent("ghost"))
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(Agent{ID: "a", Name: "A", Capabilities: []string{"x"}}))
	assert.Error(t, r.Register(Agent{ID: "a"}), "duplicate id")
	assert.Error(t, r.Register(Agent{}), "empty id")

	got, ok := r.Get("a")
	require.True(t, ok)
	got.Capabilities[0] = "mutated"
	again, _ := r.Get("a")
	assert.Equal(t, "x", again.Capabilities[0])
}
