package router

import "time"

// Node is a worker process that polls the server for queries and submits
// textual responses.
type Node struct {
	NodeID           string
	RegistrationTime time.Time
	LastSeen         time.Time
	Capabilities     map[string]any
	Info             map[string]any
	QueriesSubmitted int
	ResponsesGiven   int
}

// NodeRegistry tracks known nodes, their metadata, and liveness. Every
// method assumes the caller already holds the coordinator's global mutex;
// the registry itself does no locking.
type NodeRegistry struct {
	nodes map[string]*Node
}

// NewNodeRegistry creates an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{nodes: make(map[string]*Node)}
}

// RegisterOrTouch creates the node on first sight, or refreshes LastSeen and
// shallow-merges capabilities/info into the existing record otherwise. It
// never fails.
func (r *NodeRegistry) RegisterOrTouch(nodeID string, now time.Time, capabilities, info map[string]any) *Node {
	n, ok := r.nodes[nodeID]
	if !ok {
		n = &Node{
			NodeID:           nodeID,
			RegistrationTime: now,
			LastSeen:         now,
			Capabilities:     map[string]any{},
			Info:             map[string]any{},
		}
		r.nodes[nodeID] = n
	} else {
		n.LastSeen = now
	}

	for k, v := range capabilities {
		n.Capabilities[k] = v
	}
	for k, v := range info {
		n.Info[k] = v
	}

	return n
}

// Get returns the node record for nodeID, or (nil, false) if unknown.
func (r *NodeRegistry) Get(nodeID string) (*Node, bool) {
	n, ok := r.nodes[nodeID]
	return n, ok
}

// Len returns the number of known nodes.
func (r *NodeRegistry) Len() int {
	return len(r.nodes)
}

// All returns every known node, in no particular order.
func (r *NodeRegistry) All() []*Node {
	out := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	return out
}

// EvictIdle removes every node whose LastSeen is older than threshold as of
// now, returning the evicted ids.
func (r *NodeRegistry) EvictIdle(now time.Time, threshold time.Duration) []string {
	var evicted []string
	for id, n := range r.nodes {
		if now.Sub(n.LastSeen) > threshold {
			evicted = append(evicted, id)
			delete(r.nodes, id)
		}
	}
	return evicted
}
