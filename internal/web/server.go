// Package web adapts HTTP requests onto the router coordinator.
package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	ginMw "github.com/Laisky/gin-middlewares/v7"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/distributed-ai/query-router/internal/router"
	"github.com/distributed-ai/query-router/library/log"
)

const nodeIDHeader = "x-node-id"

// Server owns the gin engine and the coordinator it adapts requests onto.
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	coordinator *router.Coordinator
}

// NewServer builds the gin engine and registers every route.
func NewServer(coordinator *router.Coordinator) *Server {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		ginMw.NewLoggerMiddleware(
			ginMw.WithLoggerMwColored(),
			ginMw.WithLevel(log.Logger.Level().String()),
			ginMw.WithLogger(log.Logger.Named("gin")),
		),
		allowCORS,
	)
	if !gconfig.Shared.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := ginMw.EnableMetric(engine); err != nil {
		log.Logger.Panic("enable metric server", zap.Error(err))
	}

	s := &Server{engine: engine, coordinator: coordinator}
	s.routes()
	return s
}

// Engine exposes the underlying gin engine, e.g. for httptest in tests.
func (s *Server) Engine() http.Handler {
	return s.engine
}

// Run blocks serving HTTP on addr until Shutdown is called, at which point it
// returns nil instead of http.ErrServerClosed.
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}

	log.Logger.Info("listening on http", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleBanner)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/status", s.handleStatus)
	s.engine.POST("/register", s.handleRegister)
	s.engine.POST("/query", s.handleSubmit)
	s.engine.GET("/request", s.handlePoll)
	s.engine.POST("/response", s.handleRespondPost)
	s.engine.GET("/response", s.handleRespondGet)
	s.engine.POST("/end", s.handleEnd)

	admin := s.engine.Group("/admin")
	registerAdminRoutes(admin, s.coordinator)
}

func nodeID(ctx *gin.Context) string {
	return ctx.GetHeader(nodeIDHeader)
}

// echoNodeID mirrors whatever identity the request carried (or the one the
// server just minted) back on the response.
func echoNodeID(ctx *gin.Context, id string) {
	if id != "" {
		ctx.Header(nodeIDHeader, id)
	}
}

// allowCORS reflects the request's Origin back verbatim and allows every
// method/header/credential combination: fully permissive CORS across all
// origins, methods and headers, with credentials allowed. A literal `*`
// cannot be combined with credentials per the Fetch spec, so the Origin and
// the preflight's requested method and headers are reflected back instead.
func allowCORS(ctx *gin.Context) {
	origin := ctx.GetHeader("Origin")

	if origin != "" {
		ctx.Header("Access-Control-Allow-Origin", origin)
		ctx.Header("Vary", "Origin")
	} else {
		ctx.Header("Access-Control-Allow-Origin", "*")
	}
	allowHeaders := ctx.GetHeader("Access-Control-Request-Headers")
	if allowHeaders == "" {
		allowHeaders = "*"
	}
	allowMethods := ctx.GetHeader("Access-Control-Request-Method")
	if allowMethods == "" {
		allowMethods = "GET, POST, PUT, DELETE, OPTIONS, HEAD"
	}
	ctx.Header("Access-Control-Allow-Headers", allowHeaders)
	ctx.Header("Access-Control-Allow-Credentials", "true")
	ctx.Header("Access-Control-Allow-Methods", allowMethods)
	ctx.Header("Access-Control-Max-Age", "86400")

	if ctx.Request.Method == http.MethodOptions {
		ctx.AbortWithStatus(http.StatusNoContent)
		return
	}

	ctx.Next()
}

var featureList = []string{
	"node registration",
	"query submission",
	"fair work dispatch",
	"response aggregation",
	"idle node eviction",
	"query expiry and memory capping",
}

func (s *Server) handleBanner(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"banner":   "distributed query router",
		"features": featureList,
	})
}

func trimmedQuery(raw string) string {
	return strings.TrimSpace(raw)
}

// queryNumberParam parses the required "query_number" query-string parameter
// for GET /response.
func queryNumberParam(ctx *gin.Context) (int, error) {
	raw := ctx.Query("query_number")
	if raw == "" {
		return 0, errors.New("query_number required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrap(err, "parse query_number")
	}
	return n, nil
}
