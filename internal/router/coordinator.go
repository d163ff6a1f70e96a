package router

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/distributed-ai/query-router/library/config"
	"github.com/distributed-ai/query-router/library/log"
)

var coordinatorLogger = log.Logger.Named("coordinator")

// Coordinator is the single point of mutation for all server state. One
// mutex guards NodeRegistry, QueryStore and the dispatcher's view of it, no
// finer-grained locking, so every exported method here acquires mu for the
// duration of the logical operation and every type it calls into
// (NodeRegistry, QueryStore, Dispatcher) assumes that lock is already held.
type Coordinator struct {
	mu sync.Mutex

	nodes      *NodeRegistry
	queries    *QueryStore
	dispatcher *Dispatcher

	clock    Clock
	notifier Notifier
	policy   config.Policy
}

// NewCoordinator wires the registry, store and dispatcher together under
// policy's tunables. A nil clock defaults to SystemClock, a nil notifier to
// NoopNotifier.
func NewCoordinator(policy config.Policy, clock Clock, notifier Notifier) *Coordinator {
	if clock == nil {
		clock = SystemClock
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}

	store := NewQueryStore()
	return &Coordinator{
		nodes:      NewNodeRegistry(),
		queries:    store,
		dispatcher: NewDispatcher(store, policy.MaxQueriesPerNode, policy.BatchCap),
		clock:      clock,
		notifier:   notifier,
		policy:     policy,
	}
}

// NodeTimeout is the idle threshold past which a node is evicted.
func (c *Coordinator) NodeTimeout() time.Duration {
	return time.Duration(c.policy.NodeTimeoutSeconds) * time.Second
}

// QueryTimeout is the age past which a query expires unanswered.
func (c *Coordinator) QueryTimeout() time.Duration {
	return time.Duration(c.policy.QueryTimeoutSeconds) * time.Second
}

// Now reports the coordinator's own notion of the current time, so callers
// triggering a Sweep from outside the Reaper (e.g. the admin-triggered
// manual sweep) stay consistent with the Clock the coordinator was built
// with instead of reaching for the process-wide wall clock directly.
func (c *Coordinator) Now() time.Time {
	return c.clock.Now()
}

// Register creates or refreshes nodeID's registration. If nodeID is empty a
// fresh one is minted. It never fails.
func (c *Coordinator) Register(ctx context.Context, nodeID string, capabilities, info map[string]any) *Node {
	if nodeID == "" {
		nodeID = newNodeID()
	}

	c.mu.Lock()
	now := c.clock.Now()
	n := c.nodes.RegisterOrTouch(nodeID, now, capabilities, info)
	c.mu.Unlock()

	c.notifyAsync(ctx, "node.register", nodeID, "")
	return n
}

// Touch refreshes nodeID's liveness without changing capabilities/info. Only
// GET /status calls it; Register, Submit, Poll and Respond refresh liveness
// inside their own critical section. GetResponses and End do not refresh
// the caller's liveness.
func (c *Coordinator) Touch(nodeID string) {
	if nodeID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes.RegisterOrTouch(nodeID, c.clock.Now(), nil, nil)
}

// Submit creates a new query on submitterID's behalf. If submitterID is
// empty a fresh one is minted. maxResponses and timeout fall back to policy
// defaults when zero.
func (c *Coordinator) Submit(ctx context.Context, submitterID, text string, maxResponses int, timeout time.Duration) (qn int, resolvedSubmitter string, err error) {
	if submitterID == "" {
		submitterID = newNodeID()
	}
	if maxResponses <= 0 {
		maxResponses = c.policy.MaxResponsesPerQuery
	}
	if timeout <= 0 {
		timeout = c.QueryTimeout()
	}

	c.mu.Lock()
	now := c.clock.Now()
	c.nodes.RegisterOrTouch(submitterID, now, nil, nil)
	qn = c.queries.Submit(submitterID, text, now, maxResponses, timeout)
	if n, ok := c.nodes.Get(submitterID); ok {
		n.QueriesSubmitted++
	}
	c.mu.Unlock()

	c.notifyAsync(ctx, "query.submit", submitterID, "")
	return qn, submitterID, nil
}

// Poll dispatches eligible pending queries to requesterID. It also counts
// as node activity.
func (c *Coordinator) Poll(requesterID string) ([]Assignment, error) {
	if requesterID == "" {
		return nil, errors.Wrap(ErrMissingNodeID, "poll")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.nodes.RegisterOrTouch(requesterID, now, nil, nil)
	return c.dispatcher.Poll(requesterID, now), nil
}

// Respond records responderID's answer to qn.
func (c *Coordinator) Respond(ctx context.Context, qn int, responderID, text string) (total int, err error) {
	if responderID == "" {
		return 0, errors.Wrap(ErrMissingNodeID, "respond")
	}

	c.mu.Lock()
	now := c.clock.Now()
	c.nodes.RegisterOrTouch(responderID, now, nil, nil)
	total, err = c.queries.AppendResponse(qn, responderID, text, now)
	if err == nil {
		if n, ok := c.nodes.Get(responderID); ok {
			n.ResponsesGiven++
		}
	}
	c.mu.Unlock()

	if err != nil {
		return 0, err
	}

	c.notifyAsync(ctx, "query.respond", responderID, "")
	return total, nil
}

// GetResponses returns qn's response texts so far. requesterID, if
// non-empty, must match the submitter.
func (c *Coordinator) GetResponses(qn int, requesterID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queries.GetResponses(qn, requesterID)
}

// End retires qn early. requesterID, if non-empty, must match the
// submitter.
func (c *Coordinator) End(ctx context.Context, qn int, requesterID string) (bool, error) {
	c.mu.Lock()
	success, err := c.queries.End(qn, requesterID)
	c.mu.Unlock()

	if err != nil || !success {
		return success, err
	}

	c.notifyAsync(ctx, "query.end", requesterID, "")
	return true, nil
}

// StatusSnapshot holds the live counts reported by GET /health and used for
// the submit wait estimate.
type StatusSnapshot struct {
	NodeCount    int
	QueryCount   int
	PendingCount int
}

// Status reports current counts; GET /status uses FullStatus instead.
func (c *Coordinator) Status() StatusSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StatusSnapshot{
		NodeCount:    c.nodes.Len(),
		QueryCount:   c.queries.Len(),
		PendingCount: c.queries.PendingLen(),
	}
}

// Policy exposes the coordinator's configured tunables, for the /status
// response's configuration dictionary.
func (c *Coordinator) Policy() config.Policy {
	return c.policy
}

// NodeSummary is one row of the /status node listing.
type NodeSummary struct {
	NodeID           string
	SecondsIdle      float64
	QueriesSubmitted int
	ResponsesGiven   int
	Capabilities     map[string]any
}

// QuerySummary is one row of the /status query listing.
type QuerySummary struct {
	QueryNumber    int
	Submitter      string
	ResponsesCount int
	AssignedCount  int
	AgeSeconds     float64
}

// FullStatus is the complete GET /status payload.
type FullStatus struct {
	Now     time.Time
	Counter int
	Policy  config.Policy
	Nodes   []NodeSummary
	Queries []QuerySummary
}

// FullStatus builds the complete /status snapshot under the mutex, so the
// counts, node/query listings and derived ages are all consistent with one
// another.
func (c *Coordinator) FullStatus() FullStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	nodes := c.nodes.All()
	nodeSummaries := make([]NodeSummary, 0, len(nodes))
	for _, n := range nodes {
		nodeSummaries = append(nodeSummaries, NodeSummary{
			NodeID:           n.NodeID,
			SecondsIdle:      now.Sub(n.LastSeen).Seconds(),
			QueriesSubmitted: n.QueriesSubmitted,
			ResponsesGiven:   n.ResponsesGiven,
			Capabilities:     n.Capabilities,
		})
	}

	queries := c.queries.All()
	querySummaries := make([]QuerySummary, 0, len(queries))
	for _, q := range queries {
		querySummaries = append(querySummaries, QuerySummary{
			QueryNumber:    q.QueryNumber,
			Submitter:      q.SubmitterNodeID,
			ResponsesCount: len(q.Responses),
			AssignedCount:  len(q.AssignedNodes),
			AgeSeconds:     now.Sub(q.Timestamp).Seconds(),
		})
	}

	return FullStatus{
		Now:     now,
		Counter: c.queries.Counter(),
		Policy:  c.policy,
		Nodes:   nodeSummaries,
		Queries: querySummaries,
	}
}

// Sweep runs one reaper pass: expire stale queries, evict idle nodes, then
// cap memory. It is exported for the Reaper and for the admin-triggered
// manual sweep endpoint; both paths share the mutex.
func (c *Coordinator) Sweep(now time.Time) SweepResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	expired := c.queries.Expire(now)
	evicted := c.nodes.EvictIdle(now, c.NodeTimeout())
	capped := c.queries.Cap(c.policy.MaxMemorySize)

	return SweepResult{
		ExpiredQueries: len(expired),
		EvictedNodes:   len(evicted),
		CappedQueries:  len(capped),
	}
}

// NewReaperFor builds a Reaper bound to this coordinator's Sweep.
func (c *Coordinator) NewReaperFor() *Reaper {
	interval := time.Duration(c.policy.SweepIntervalSeconds) * time.Second
	return NewReaper(interval, c.clock, c.notifier, c.Sweep)
}

// notifyAsync publishes a best-effort lifecycle event without blocking the
// caller on network I/O; failures are logged, never surfaced. Notification
// is never part of the request/response contract.
func (c *Coordinator) notifyAsync(ctx context.Context, kind, subject, detail string) {
	at := c.clock.Now()
	pubCtx := context.WithoutCancel(ctx)
	go func() {
		if err := c.notifier.Publish(pubCtx, kind, subject, detail, at); err != nil {
			coordinatorLogger.Debug("publish lifecycle event",
				zap.String("kind", kind),
				zap.Error(err))
		}
	}()
}
