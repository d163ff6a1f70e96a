package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/distributed-ai/query-router/internal/router"
	"github.com/distributed-ai/query-router/library/auth"
)

// registerAdminRoutes wires the optional JWT-protected operator surface.
// Unlike the node API, these endpoints are never part of the routing
// contract the nodes themselves speak; they exist purely for operators,
// guarded by auth.RequireAdmin (disabled entirely when no admin secret is
// configured).
func registerAdminRoutes(group *gin.RouterGroup, coordinator *router.Coordinator) {
	group.Use(auth.RequireAdmin)

	group.GET("/dump", func(ctx *gin.Context) {
		full := coordinator.FullStatus()
		ctx.JSON(http.StatusOK, gin.H{
			"counter": full.Counter,
			"nodes":   full.Nodes,
			"queries": full.Queries,
		})
	})

	group.POST("/sweep", func(ctx *gin.Context) {
		result := coordinator.Sweep(coordinator.Now())
		ctx.JSON(http.StatusOK, gin.H{
			"expired_queries": result.ExpiredQueries,
			"evicted_nodes":   result.EvictedNodes,
			"capped_queries":  result.CappedQueries,
		})
	})
}
