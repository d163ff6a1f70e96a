package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherExcludesSelfSubmission(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	d := NewDispatcher(store, 5, 3)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	qn := store.Submit("node_aaaaaaaa", "hi", t0, 3, 180*time.Second)

	assignments := d.Poll("node_aaaaaaaa", t0)
	assert.Empty(t, assignments)
	assert.Equal(t, []int{qn}, store.PendingSnapshot(), "self-submission is skipped, not removed")
}

func TestDispatcherAssignsOnceEach(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	d := NewDispatcher(store, 5, 3)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	qn := store.Submit("node_submitt", "hi", t0, 3, 180*time.Second)

	first := d.Poll("node_bbbbbbbb", t0)
	require.Len(t, first, 1)
	assert.Equal(t, qn, first[0].QueryNumber)

	second := d.Poll("node_bbbbbbbb", t0)
	assert.Empty(t, second, "a node never receives the same query twice")
}

func TestDispatcherRespectsCapacity(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	d := NewDispatcher(store, 1, 3)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Submit("node_submitt", "one", t0, 3, 180*time.Second)
	qn2 := store.Submit("node_submitt", "two", t0, 3, 180*time.Second)

	first := d.Poll("node_bbbbbbbb", t0)
	require.Len(t, first, 1, "max_queries_per_node=1 caps the batch even though batch_cap allows more")

	assert.Contains(t, store.PendingSnapshot(), qn2, "the skipped query is left in pending, not removed")
}

func TestDispatcherRespectsBatchCap(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	d := NewDispatcher(store, 10, 2)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		store.Submit("node_submitt", "q", t0, 3, 180*time.Second)
	}

	assignments := d.Poll("node_bbbbbbbb", t0)
	assert.Len(t, assignments, 2)
}

func TestDispatcherRemovesExpiredQuery(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	d := NewDispatcher(store, 5, 3)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	qn := store.Submit("node_submitt", "hi", t0, 3, 10*time.Second)

	assignments := d.Poll("node_bbbbbbbb", t0.Add(20*time.Second))
	assert.Empty(t, assignments)

	_, ok := store.Get(qn)
	assert.False(t, ok, "an expired query is deleted outright during dispatch")
}

func TestDispatcherRemovesFullyAnsweredQuery(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	d := NewDispatcher(store, 5, 3)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	qn := store.Submit("node_submitt", "hi", t0, 1, 180*time.Second)
	q, _ := store.Get(qn)
	q.assign("node_bbbbbbbb")
	_, err := store.AppendResponse(qn, "node_bbbbbbbb", "answer", t0)
	require.NoError(t, err)

	assert.Empty(t, store.PendingSnapshot(), "a fully-answered query is already retired from pending")

	assignments := d.Poll("node_cccccccc", t0)
	assert.Empty(t, assignments)
}
