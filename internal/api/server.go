// Package api provides the HTTP server for the gateway: routing setup,
// middleware, and lifecycle management around the protocol handler families.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	basehandlers "github.com/modelrelay/modelrelay/internal/api/handlers"
	adkapi "github.com/modelrelay/modelrelay/internal/api/handlers/adk"
	assistantsapi "github.com/modelrelay/modelrelay/internal/api/handlers/assistants"
	responsesapi "github.com/modelrelay/modelrelay/internal/api/handlers/responses"
	"github.com/modelrelay/modelrelay/internal/api/middleware"
	"github.com/modelrelay/modelrelay/internal/config"
	"github.com/modelrelay/modelrelay/internal/gateway"
	"github.com/modelrelay/modelrelay/internal/logging"
	"github.com/modelrelay/modelrelay/internal/store"
)

// Server represents the gateway HTTP server. It encapsulates the Gin engine,
// the underlying http.Server, and the handler families.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	cfg        *config.Config

	base       *basehandlers.BaseHandler
	responses  *responsesapi.Handler
	adk        *adkapi.Handler
	assistants *assistantsapi.Handler
}

// New constructs the server with all routes registered.
func New(cfg *config.Config, invoker gateway.Invoker, resolver gateway.Resolver) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery(), middleware.CORS())

	base := basehandlers.NewBaseHandler(cfg, invoker, resolver, store.New())
	s := &Server{
		engine:     engine,
		cfg:        cfg,
		base:       base,
		responses:  responsesapi.NewHandler(base),
		adk:        adkapi.NewHandler(base),
		assistants: assistantsapi.NewHandler(base),
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OpenAI Responses API surface.
	s.engine.GET("/v1/models", s.responses.Models)
	s.engine.POST("/v1/responses", s.responses.Responses)

	// Google ADK surface.
	s.engine.GET("/list-apps", s.adk.ListApps)
	s.engine.POST("/run", s.adk.Run)
	s.engine.POST("/run_sse", s.adk.RunSSE)
	sessions := s.engine.Group("/apps/:app/users/:user/sessions")
	{
		sessions.GET("", s.adk.ListSessions)
		sessions.POST("", s.adk.CreateSession)
		sessions.GET("/:id", s.adk.GetSession)
		sessions.DELETE("/:id", s.adk.DeleteSession)
	}

	// OpenAI Assistants API surface.
	s.engine.GET("/v1/assistants", s.assistants.ListAssistants)
	s.engine.GET("/v1/assistants/:id", s.assistants.GetAssistant)
	threads := s.engine.Group("/v1/threads")
	{
		threads.POST("", s.assistants.CreateThread)
		threads.POST("/runs", s.assistants.CreateThreadAndRun)
		threads.GET("/:id", s.assistants.GetThread)
		threads.DELETE("/:id", s.assistants.DeleteThread)
		threads.POST("/:id/messages", s.assistants.CreateMessage)
		threads.GET("/:id/messages", s.assistants.ListMessages)
		threads.GET("/:id/messages/:mid", s.assistants.GetMessage)
		threads.POST("/:id/runs", s.assistants.CreateRun)
	}
}

// Engine exposes the underlying Gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// UpdateConfig applies runtime-changeable settings from a reloaded
// configuration.
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.base.Cfg.RequestLog = cfg.RequestLog
	logging.SetLogLevel(cfg.LoggingLevel)
}

// Start begins serving. It blocks until the listener stops.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("gateway listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
