package router

import (
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryStoreSubmitAssignsIncreasingNumbers(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	qn1 := store.Submit("node_aaaaaaaa", "hi", t0, 3, 180*time.Second)
	qn2 := store.Submit("node_aaaaaaaa", "again", t0, 3, 180*time.Second)

	assert.Equal(t, 1, qn1)
	assert.Equal(t, 2, qn2)
	assert.Equal(t, 2, store.Counter())
	assert.Equal(t, []int{1, 2}, store.PendingSnapshot())
}

func TestQueryStoreAppendResponseLifecycle(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qn := store.Submit("node_submitt", "hi", t0, 2, 180*time.Second)

	q, ok := store.Get(qn)
	require.True(t, ok)
	q.assign("node_respond1")
	q.assign("node_respond2")

	total, err := store.AppendResponse(qn, "node_respond1", "answer one", t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []int{qn}, store.PendingSnapshot(), "query stays pending below max_responses")

	total, err = store.AppendResponse(qn, "node_respond2", "answer two", t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, store.PendingSnapshot(), "query retires from pending once max_responses is met")
}

func TestQueryStoreAppendResponseRejections(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qn := store.Submit("node_submitt", "hi", t0, 3, 180*time.Second)

	_, err := store.AppendResponse(9999, "node_respond1", "x", t0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.AppendResponse(qn, "node_submitt", "x", t0)
	assert.ErrorIs(t, err, ErrSelfResponse)

	_, err = store.AppendResponse(qn, "node_unassign", "x", t0)
	assert.ErrorIs(t, err, ErrNotAssigned)

	q, _ := store.Get(qn)
	q.assign("node_respond1")
	_, err = store.AppendResponse(qn, "node_respond1", "x", t0)
	require.NoError(t, err)

	_, err = store.AppendResponse(qn, "node_respond1", "y", t0)
	assert.ErrorIs(t, err, ErrDuplicateResponse)
}

func TestQueryStoreGetResponsesAuthorization(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qn := store.Submit("node_submitt", "hi", t0, 3, 180*time.Second)

	q, _ := store.Get(qn)
	q.assign("node_respond1")
	_, err := store.AppendResponse(qn, "node_respond1", "rb", t0)
	require.NoError(t, err)

	texts, err := store.GetResponses(qn, "node_submitt")
	require.NoError(t, err)
	assert.Equal(t, []string{"rb"}, texts)

	_, err = store.GetResponses(qn, "node_stranger")
	assert.ErrorIs(t, err, ErrUnauthorized)

	texts, err = store.GetResponses(424242, "")
	require.NoError(t, err)
	assert.Equal(t, []string{}, texts, "unknown query is a fail-open empty read, not an error")
}

func TestQueryStoreEnd(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qn := store.Submit("node_submitt", "hi", t0, 3, 180*time.Second)

	success, err := store.End(qn, "node_stranger")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, success)

	success, err = store.End(9999, "")
	require.NoError(t, err)
	assert.False(t, success, "unknown query number is a soft failure, not an error")

	success, err = store.End(qn, "node_submitt")
	require.NoError(t, err)
	assert.True(t, success)

	_, ok := store.Get(qn)
	assert.False(t, ok)
}

func TestQueryStoreExpire(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qn := store.Submit("node_submitt", "hi", t0, 3, 10*time.Second)

	expired := store.Expire(t0.Add(5 * time.Second))
	assert.Empty(t, expired)

	expired = store.Expire(t0.Add(11 * time.Second))
	require.Len(t, expired, 1)
	assert.Equal(t, qn, expired[0].QueryNumber)

	_, ok := store.Get(qn)
	assert.False(t, ok)
	assert.Empty(t, store.PendingSnapshot())
}

func TestQueryStoreCapDropsOldestFirst(t *testing.T) {
	t.Parallel()

	store := NewQueryStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	qn1 := store.Submit("node_a", "one", t0, 3, 180*time.Second)
	store.Submit("node_a", "two", t0.Add(time.Second), 3, 180*time.Second)
	store.Submit("node_a", "three", t0.Add(2*time.Second), 3, 180*time.Second)

	dropped := store.Cap(2)
	require.Len(t, dropped, 1)
	assert.Equal(t, qn1, dropped[0].QueryNumber, "the oldest by timestamp is dropped first")
	assert.Equal(t, 2, store.Len())
}
