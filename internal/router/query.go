package router

import (
	"sort"
	"time"

	"github.com/Laisky/errors/v2"
)

// Response is one node's answer to a query.
type Response struct {
	NodeID    string
	Text      string
	Timestamp time.Time
}

// Query is a submitter-supplied text request awaiting responses from other
// nodes.
type Query struct {
	QueryNumber     int
	Text            string
	SubmitterNodeID string
	Timestamp       time.Time
	AssignedNodes   []string
	Responses       []Response
	MaxResponses    int
	Timeout         time.Duration
	assignedSet     map[string]struct{}
	respondedSet    map[string]struct{}
}

func newQuery(number int, submitter, text string, now time.Time, maxResponses int, timeout time.Duration) *Query {
	return &Query{
		QueryNumber:     number,
		Text:            text,
		SubmitterNodeID: submitter,
		Timestamp:       now,
		MaxResponses:    maxResponses,
		Timeout:         timeout,
		assignedSet:     map[string]struct{}{},
		respondedSet:    map[string]struct{}{},
	}
}

// IsAssigned reports whether nodeID has already been dispatched this query.
func (q *Query) IsAssigned(nodeID string) bool {
	_, ok := q.assignedSet[nodeID]
	return ok
}

// HasResponded reports whether nodeID already submitted a response.
func (q *Query) HasResponded(nodeID string) bool {
	_, ok := q.respondedSet[nodeID]
	return ok
}

func (q *Query) assign(nodeID string) {
	q.AssignedNodes = append(q.AssignedNodes, nodeID)
	q.assignedSet[nodeID] = struct{}{}
}

// FullyAnswered reports whether the query has met its response quota.
func (q *Query) FullyAnswered() bool {
	return len(q.Responses) >= q.MaxResponses
}

// Expired reports whether the query has outlived its timeout as of now.
func (q *Query) Expired(now time.Time) bool {
	return now.Sub(q.Timestamp) > q.Timeout
}

// QueryStore owns queries, their responses and assignments, and assigns
// monotonic query numbers. As with NodeRegistry, every method assumes the
// caller holds the coordinator's global mutex.
type QueryStore struct {
	counter int
	queries map[int]*Query
	pending []int
}

// NewQueryStore creates an empty store with counter starting at 0.
func NewQueryStore() *QueryStore {
	return &QueryStore{queries: make(map[int]*Query)}
}

// Submit creates a new query, assigns it the next query number, and appends
// it to the pending FIFO. Returns the new query number.
func (s *QueryStore) Submit(submitterID, text string, now time.Time, maxResponses int, timeout time.Duration) int {
	s.counter++
	q := newQuery(s.counter, submitterID, text, now, maxResponses, timeout)
	s.queries[s.counter] = q
	s.pending = append(s.pending, s.counter)
	return s.counter
}

// Get returns the query for qn, or (nil, false) if unknown.
func (s *QueryStore) Get(qn int) (*Query, bool) {
	q, ok := s.queries[qn]
	return q, ok
}

// Counter returns the most recently assigned query number (0 if none).
func (s *QueryStore) Counter() int {
	return s.counter
}

// Len returns the number of live queries.
func (s *QueryStore) Len() int {
	return len(s.queries)
}

// PendingLen returns the number of queries still eligible for dispatch.
func (s *QueryStore) PendingLen() int {
	return len(s.pending)
}

// All returns every live query, in no particular order.
func (s *QueryStore) All() []*Query {
	out := make([]*Query, 0, len(s.queries))
	for _, q := range s.queries {
		out = append(out, q)
	}
	return out
}

// GetResponses returns the response texts for qn in arrival order. Unknown
// queries yield an empty, non-nil slice and no error, matching the
// original's fail-open read path. If requesterID is non-empty and differs
// from the submitter, ErrUnauthorized is returned.
func (s *QueryStore) GetResponses(qn int, requesterID string) ([]string, error) {
	q, ok := s.queries[qn]
	if !ok {
		return []string{}, nil
	}

	if requesterID != "" && requesterID != q.SubmitterNodeID {
		return nil, errors.Wrap(ErrUnauthorized, "get responses")
	}

	texts := make([]string, len(q.Responses))
	for i, r := range q.Responses {
		texts[i] = r.Text
	}
	return texts, nil
}

// AppendResponse validates and records responderID's answer to qn. On
// success it returns the query's total response count so far. When the
// quota is met, qn is retired from pending.
func (s *QueryStore) AppendResponse(qn int, responderID, text string, now time.Time) (total int, err error) {
	q, ok := s.queries[qn]
	if !ok {
		return 0, errors.Wrap(ErrNotFound, "append response")
	}
	if responderID == q.SubmitterNodeID {
		return 0, errors.Wrap(ErrSelfResponse, "append response")
	}
	if !q.IsAssigned(responderID) {
		return 0, errors.Wrap(ErrNotAssigned, "append response")
	}
	if q.HasResponded(responderID) {
		return 0, errors.Wrap(ErrDuplicateResponse, "append response")
	}

	q.Responses = append(q.Responses, Response{NodeID: responderID, Text: text, Timestamp: now})
	q.respondedSet[responderID] = struct{}{}

	if q.FullyAnswered() {
		s.removePending(qn)
	}

	return len(q.Responses), nil
}

// End removes qn from pending and from the store. If requesterID is
// non-empty and differs from the submitter, ErrUnauthorized is returned.
// An unknown query number is not an error — it reports success=false,
// matching the original's soft-failure contract for /end.
func (s *QueryStore) End(qn int, requesterID string) (success bool, err error) {
	q, ok := s.queries[qn]
	if !ok {
		return false, nil
	}

	if requesterID != "" && requesterID != q.SubmitterNodeID {
		return false, errors.Wrap(ErrUnauthorized, "end query")
	}

	s.removePending(qn)
	delete(s.queries, qn)
	return true, nil
}

// Expire removes and returns every query older than its own timeout as of
// now.
func (s *QueryStore) Expire(now time.Time) []*Query {
	var expired []*Query
	for qn, q := range s.queries {
		if q.Expired(now) {
			expired = append(expired, q)
			s.removePending(qn)
			delete(s.queries, qn)
		}
	}
	return expired
}

// Cap drops the oldest queries (by Timestamp, ties broken by lower
// QueryNumber) until at most maxSize remain.
func (s *QueryStore) Cap(maxSize int) []*Query {
	if len(s.queries) <= maxSize {
		return nil
	}

	all := s.All()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Timestamp.Before(all[j].Timestamp)
		}
		return all[i].QueryNumber < all[j].QueryNumber
	})

	drop := len(s.queries) - maxSize
	dropped := make([]*Query, 0, drop)
	for i := 0; i < drop; i++ {
		q := all[i]
		s.removePending(q.QueryNumber)
		delete(s.queries, q.QueryNumber)
		dropped = append(dropped, q)
	}
	return dropped
}

// removePending removes qn from pending by value, preserving order of the
// rest via an explicit index-based scan.
func (s *QueryStore) removePending(qn int) {
	for i, id := range s.pending {
		if id == qn {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// PendingSnapshot returns a copy of the pending FIFO, so a caller (the
// Dispatcher) can remove entries from pending while iterating the copy.
func (s *QueryStore) PendingSnapshot() []int {
	out := make([]int, len(s.pending))
	copy(out, s.pending)
	return out
}
