package router

import "github.com/Laisky/errors/v2"

// Sentinel errors the API layer matches with errors.Is to pick an HTTP
// status code. Component methods wrap these with errors.Wrap so the stack
// trace survives, but the identity used for matching is the sentinel itself.
var (
	// ErrNotFound means the referenced query does not exist.
	ErrNotFound = errors.New("query not found")
	// ErrUnauthorized means the caller is not the query's submitter.
	ErrUnauthorized = errors.New("not authorized for this query")
	// ErrSelfResponse means a node tried to respond to its own query.
	ErrSelfResponse = errors.New("cannot respond to your own query")
	// ErrNotAssigned means the responder was never dispatched this query.
	ErrNotAssigned = errors.New("node not assigned to this query")
	// ErrDuplicateResponse means the responder already answered this query.
	ErrDuplicateResponse = errors.New("node already responded to this query")
	// ErrMissingNodeID means a required x-node-id header was absent.
	ErrMissingNodeID = errors.New("node id required")
)
