package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNodeIDFormat(t *testing.T) {
	t.Parallel()

	id := newNodeID()
	assert.True(t, strings.HasPrefix(id, "node_"))
	assert.Len(t, strings.TrimPrefix(id, "node_"), 8)
}

func TestNewNodeIDIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := newNodeID()
		_, dup := seen[id]
		assert.False(t, dup, "minted node ids must not collide")
		seen[id] = struct{}{}
	}
}
