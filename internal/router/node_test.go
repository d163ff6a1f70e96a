package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeRegistryRegisterOrTouch(t *testing.T) {
	t.Parallel()

	reg := NewNodeRegistry()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n := reg.RegisterOrTouch("node_aaaaaaaa", t0, map[string]any{"gpu": true}, map[string]any{"region": "us"})
	require.Equal(t, t0, n.RegistrationTime)
	require.Equal(t, t0, n.LastSeen)
	assert.Equal(t, true, n.Capabilities["gpu"])
	assert.Equal(t, "us", n.Info["region"])

	t1 := t0.Add(30 * time.Second)
	n2 := reg.RegisterOrTouch("node_aaaaaaaa", t1, map[string]any{"cpu": 8}, nil)
	assert.Same(t, n, n2)
	assert.Equal(t, t0, n2.RegistrationTime, "registration time must not change on touch")
	assert.Equal(t, t1, n2.LastSeen)
	assert.Equal(t, true, n2.Capabilities["gpu"], "existing capabilities survive a shallow merge")
	assert.Equal(t, 8, n2.Capabilities["cpu"], "new capability keys are added")

	assert.Equal(t, 1, reg.Len())
}

func TestNodeRegistryEvictIdle(t *testing.T) {
	t.Parallel()

	reg := NewNodeRegistry()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	reg.RegisterOrTouch("node_live0000", t0, nil, nil)
	reg.RegisterOrTouch("node_dead0000", t0, nil, nil)

	live := t0.Add(100 * time.Second)
	reg.RegisterOrTouch("node_live0000", live, nil, nil)

	evicted := reg.EvictIdle(t0.Add(300*time.Second), 200*time.Second)
	assert.ElementsMatch(t, []string{"node_dead0000"}, evicted)
	assert.Equal(t, 1, reg.Len())

	_, ok := reg.Get("node_dead0000")
	assert.False(t, ok)
	_, ok = reg.Get("node_live0000")
	assert.True(t, ok)
}
