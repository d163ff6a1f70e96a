package web

import (
	"net/http"
	"time"

	goerrors "github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/distributed-ai/query-router/internal/router"
	"github.com/distributed-ai/query-router/library/log"
)

var handlerLogger = log.Logger.Named("handlers")

func (s *Server) handleHealth(ctx *gin.Context) {
	status := s.coordinator.Status()
	ctx.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"timestamp":      time.Now().UTC(),
		"active_nodes":   status.NodeCount,
		"active_queries": status.QueryCount,
	})
}

func (s *Server) handleStatus(ctx *gin.Context) {
	id := nodeID(ctx)
	if id != "" {
		s.coordinator.Touch(id)
	}
	echoNodeID(ctx, id)

	full := s.coordinator.FullStatus()
	policy := full.Policy

	nodes := make([]gin.H, 0, len(full.Nodes))
	for _, n := range full.Nodes {
		nodes = append(nodes, gin.H{
			"node_id":            n.NodeID,
			"seconds_since_seen": n.SecondsIdle,
			"queries_submitted":  n.QueriesSubmitted,
			"responses_provided": n.ResponsesGiven,
			"capabilities":       n.Capabilities,
		})
	}

	queries := make([]gin.H, 0, len(full.Queries))
	for _, q := range full.Queries {
		queries = append(queries, gin.H{
			"id":              q.QueryNumber,
			"submitter":       q.Submitter,
			"responses_count": q.ResponsesCount,
			"assigned_nodes":  q.AssignedCount,
			"age":             q.AgeSeconds,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"server_status":            "running",
		"version":                  "2.0.0",
		"total_nodes":              len(full.Nodes),
		"active_queries":           len(full.Queries),
		"total_queries_processed":  full.Counter,
		"timestamp":                full.Now,
		"configuration": gin.H{
			"max_queries_per_node":    policy.MaxQueriesPerNode,
			"node_timeout":            policy.NodeTimeoutSeconds,
			"query_timeout":           policy.QueryTimeoutSeconds,
			"max_responses_per_query": policy.MaxResponsesPerQuery,
		},
		"nodes":   nodes,
		"queries": queries,
	})
}

type registerBody struct {
	NodeCapabilities map[string]any `json:"node_capabilities"`
	NodeInfo         map[string]any `json:"node_info"`
}

func (s *Server) handleRegister(ctx *gin.Context) {
	var body registerBody
	_ = ctx.ShouldBindJSON(&body)

	n := s.coordinator.Register(ctx.Request.Context(), nodeID(ctx), body.NodeCapabilities, body.NodeInfo)
	echoNodeID(ctx, n.NodeID)

	ctx.JSON(http.StatusOK, gin.H{
		"node_id": n.NodeID,
		"status":  "registered",
	})
}

type submitBody struct {
	Query string `json:"query"`
}

func (s *Server) handleSubmit(ctx *gin.Context) {
	var body submitBody
	if err := ctx.ShouldBindJSON(&body); err != nil || trimmedQuery(body.Query) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "query text required"})
		return
	}

	qn, id, err := s.coordinator.Submit(ctx.Request.Context(), nodeID(ctx), body.Query, 0, 0)
	if err != nil {
		writeError(ctx, err)
		return
	}
	echoNodeID(ctx, id)

	ctx.JSON(http.StatusOK, gin.H{
		"query_number":        qn,
		"node_id":             id,
		"status":              "submitted",
		"estimated_wait_time": s.coordinator.Status().PendingCount * 5,
	})
}

func (s *Server) handlePoll(ctx *gin.Context) {
	id := nodeID(ctx)
	echoNodeID(ctx, id)

	if id == "" {
		ctx.JSON(http.StatusOK, []gin.H{})
		return
	}

	assignments, err := s.coordinator.Poll(id)
	if err != nil {
		handlerLogger.Error("poll", zap.Error(err))
		ctx.JSON(http.StatusOK, []gin.H{})
		return
	}

	out := make([]gin.H, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, gin.H{
			"query_number": a.QueryNumber,
			"query":        a.Query,
			"timestamp":    a.Timestamp,
			"metadata": gin.H{
				"max_responses":     a.MaxResponses,
				"current_responses": a.CurrentResponses,
				"timeout":           a.Timeout.Seconds(),
			},
		})
	}

	ctx.JSON(http.StatusOK, out)
}

type responseBody struct {
	QueryNumber int    `json:"query_number"`
	Response    string `json:"response"`
}

func (s *Server) handleRespondPost(ctx *gin.Context) {
	id := nodeID(ctx)
	echoNodeID(ctx, id)
	if id == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": router.ErrMissingNodeID.Error()})
		return
	}

	var body responseBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	total, err := s.coordinator.Respond(ctx.Request.Context(), body.QueryNumber, id, body.Response)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":         "response recorded",
		"query_number":    body.QueryNumber,
		"node_id":         id,
		"total_responses": total,
	})
}

func (s *Server) handleRespondGet(ctx *gin.Context) {
	id := nodeID(ctx)
	echoNodeID(ctx, id)

	qn, err := queryNumberParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "query_number required"})
		return
	}

	responses, err := s.coordinator.GetResponses(qn, id)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, responses)
}

type endBody struct {
	QueryNumber int `json:"query_number"`
}

func (s *Server) handleEnd(ctx *gin.Context) {
	id := nodeID(ctx)
	echoNodeID(ctx, id)

	var body endBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "query_number required"})
		return
	}

	success, err := s.coordinator.End(ctx.Request.Context(), body.QueryNumber, id)
	if err != nil {
		writeError(ctx, err)
		return
	}

	message := "query ended"
	if !success {
		message = "query not found"
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      success,
		"query_number": body.QueryNumber,
		"message":      message,
	})
}

// writeError maps a router sentinel error to an HTTP status code. Anything
// unrecognized is logged and surfaced as a generic 500.
func writeError(ctx *gin.Context, err error) {
	switch {
	case goerrors.Is(err, router.ErrMissingNodeID),
		goerrors.Is(err, router.ErrSelfResponse),
		goerrors.Is(err, router.ErrNotAssigned),
		goerrors.Is(err, router.ErrDuplicateResponse):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case goerrors.Is(err, router.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case goerrors.Is(err, router.ErrUnauthorized):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		handlerLogger.Error("unhandled request fault", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
