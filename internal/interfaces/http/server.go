// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application
// service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bachkhoacons/asset-approval/internal/application/port"
	"github.com/bachkhoacons/asset-approval/internal/application/service"
	"github.com/bachkhoacons/asset-approval/internal/config"
	"github.com/bachkhoacons/asset-approval/internal/sse"
)

// Server is the HTTP server adapter
type Server struct {
	config     config.ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	users      port.UserRepository
	logger     *zap.Logger
}

// NewServer creates a new HTTP server wired to the given services
func NewServer(
	cfg config.ServerConfig,
	approvalService service.ApprovalService,
	transferService service.TransferService,
	requestService service.RequestService,
	reportService service.ReportService,
	directoryService service.DirectoryService,
	auditLogs port.AuditLogRepository,
	leadership port.LeadershipRepository,
	users port.UserRepository,
	hub *sse.Hub,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &Server{
		config: cfg,
		router: router,
		handlers: NewHandlers(
			approvalService,
			transferService,
			requestService,
			reportService,
			directoryService,
			auditLogs,
			leadership,
			hub,
			logger,
		),
		users:  users,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)

	api := s.router.Group("/api/v1")
	api.Use(s.authMiddleware())
	{
		transfers := api.Group("/transfers")
		{
			transfers.POST("", s.handlers.CreateTransfer)
			transfers.GET("", s.handlers.ListTransfers)
			transfers.GET("/:id", s.handlers.GetTransfer)
			transfers.POST("/:id/sign", s.handlers.SignTransfer)
			transfers.DELETE("/:id", s.handlers.DeleteTransfer)
			transfers.GET("/:id/permissions", s.handlers.TransferPermissions)
		}

		requests := api.Group("/requests")
		{
			requests.POST("", s.handlers.CreateRequest)
			requests.GET("", s.handlers.ListRequests)
			requests.GET("/:id", s.handlers.GetRequest)
			requests.POST("/:id/sign", s.handlers.SignRequest)
			requests.POST("/:id/reject", s.handlers.RejectRequest)
			requests.DELETE("/:id", s.handlers.DeleteRequest)
			requests.GET("/:id/permissions", s.handlers.RequestPermissions)
		}

		reports := api.Group("/reports")
		{
			reports.POST("", s.handlers.CreateReport)
			reports.GET("", s.handlers.ListReports)
			reports.GET("/:id", s.handlers.GetReport)
			reports.POST("/:id/sign", s.handlers.SignReport)
			reports.POST("/:id/reject", s.handlers.RejectReport)
			reports.DELETE("/:id", s.handlers.DeleteReport)
			reports.GET("/:id/permissions", s.handlers.ReportPermissions)
		}

		api.GET("/departments", s.handlers.ListDepartments)
		api.GET("/audit-logs", s.handlers.ListAuditLogs)
		api.GET("/config/leadership", s.handlers.GetLeadershipConfig)
		api.PUT("/config/leadership", s.handlers.PutLeadershipConfig)
		api.GET("/events", s.handlers.Events)
	}
}

// authMiddleware resolves the acting user from the X-User-ID header set by
// the authenticating gateway. Unknown or missing identities are rejected
// before any handler runs.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader("X-User-ID")
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing user identity",
			})
			return
		}

		actor, err := s.users.GetByUID(c.Request.Context(), uid)
		if err != nil {
			s.logger.Error("Failed to resolve user", zap.String("uid", uid), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "failed to resolve user",
			})
			return
		}
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "unknown user",
			})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server starting", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
