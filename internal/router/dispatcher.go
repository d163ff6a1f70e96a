package router

import "time"

// Assignment is one query handed to a polling node, the /request response
// shape.
type Assignment struct {
	QueryNumber      int
	Query            string
	Timestamp        time.Time
	MaxResponses     int
	CurrentResponses int
	Timeout          time.Duration
}

// Dispatcher selects queries for a polling node under the exclusion,
// capacity, and responses-met rules. It reads and mutates QueryStore.pending
// directly, so — like NodeRegistry and QueryStore — it assumes the caller
// holds the coordinator's global mutex.
type Dispatcher struct {
	store             *QueryStore
	maxQueriesPerNode int
	batchCap          int
}

// NewDispatcher builds a Dispatcher bound to store.
func NewDispatcher(store *QueryStore, maxQueriesPerNode, batchCap int) *Dispatcher {
	return &Dispatcher{store: store, maxQueriesPerNode: maxQueriesPerNode, batchCap: batchCap}
}

// Poll walks pending in FIFO order and dispatches up to batchCap eligible
// queries to requesterID.
func (d *Dispatcher) Poll(requesterID string, now time.Time) []Assignment {
	load := d.liveLoad(requesterID)
	var out []Assignment

	for _, qn := range d.store.PendingSnapshot() {
		if len(out) >= d.batchCap {
			break
		}

		q, ok := d.store.queries[qn]
		if !ok {
			d.store.removePending(qn)
			continue
		}

		if q.SubmitterNodeID == requesterID {
			continue
		}
		if q.IsAssigned(requesterID) {
			continue
		}
		if q.FullyAnswered() {
			d.store.removePending(qn)
			continue
		}
		if q.Expired(now) {
			d.store.removePending(qn)
			delete(d.store.queries, qn)
			continue
		}
		if load >= d.maxQueriesPerNode {
			continue
		}

		q.assign(requesterID)
		load++
		out = append(out, Assignment{
			QueryNumber:      q.QueryNumber,
			Query:            q.Text,
			Timestamp:        q.Timestamp,
			MaxResponses:     q.MaxResponses,
			CurrentResponses: len(q.Responses),
			Timeout:          q.Timeout,
		})
	}

	return out
}

// liveLoad counts queries currently assigned to nodeID, its "active
// queries" count. A node evicted from NodeRegistry can still be listed in
// some query's AssignedNodes; that does not count against anyone's load,
// since load is counted against the polling node, not retroactively
// rewritten once a node disappears.
func (d *Dispatcher) liveLoad(nodeID string) int {
	n := 0
	for _, q := range d.store.queries {
		if q.IsAssigned(nodeID) {
			n++
		}
	}
	return n
}
