package router

import "github.com/google/uuid"

// nodeIDPrefix mirrors the original implementation's "node_" convention.
const nodeIDPrefix = "node_"

// newNodeID mints an opaque, process-unique node identifier: "node_" followed
// by the first 8 hex characters of a fresh UUID.
func newNodeID() string {
	return nodeIDPrefix + uuid.NewString()[:8]
}
