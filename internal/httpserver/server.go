// Package httpserver exposes the session engine over HTTP. Every
// session-scoped route is keyed by the X-User-ID header; the server creates
// the user's session on first touch and reuses it afterwards.
package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/planmatch/planmatch/internal/session"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// Server wires the HTTP routes to the session manager.
type Server struct {
	engine   *gin.Engine
	sessions *session.Manager
	cache    HealthChecker
}

// New creates the HTTP server. cache may be nil when the snapshot cache is
// disabled.
func New(serviceName string, sessions *session.Manager, cache HealthChecker) *Server {
	engine := gin.New()
	engine.Use(
		RecoveryMiddleware(),
		CorrelationIDMiddleware(),
		RequestLoggerMiddleware(),
		otelgin.Middleware(serviceName),
	)

	s := &Server{
		engine:   engine,
		sessions: sessions,
		cache:    cache,
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.health)

	v1 := s.engine.Group("/api/v1", UserIDMiddleware())
	{
		v1.GET("/matches", s.listMatches)
		v1.GET("/matches/:id/messages", s.getConversation)
		v1.POST("/matches/:id/messages", s.sendMessage)
		v1.POST("/matches/:id/confirm", s.confirmPlan)
		v1.POST("/matches/:id/select", s.selectMatch)
		v1.POST("/matches/:id/deselect", s.deselectMatch)
		v1.GET("/rating-gate", s.ratingGate)
	}
}

func (s *Server) health(c *gin.Context) {
	status := gin.H{"status": "healthy", "service": "planmatch"}
	code := http.StatusOK

	if s.cache != nil && !s.cache.HealthCheck(c.Request.Context()) {
		status["status"] = "degraded"
		status["cache"] = "unreachable"
	}

	c.JSON(code, status)
}
