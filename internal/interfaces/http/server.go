// Package http provides the HTTP adapter over the application services.
// It translates requests into service calls and service errors into status
// codes; no workflow rules live here.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/application/service"
	"github.com/Sadiqmanga/voucher-system/internal/render"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	logger     Logger
}

// NewServer creates the HTTP server and wires all routes
func NewServer(
	config ServerConfig,
	voucherService service.VoucherService,
	userService service.UserService,
	activityService service.ActivityService,
	reporter *render.ExcelReporter,
	userRepo port.UserRepository,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		config: config,
		router: router,
		logger: logger,
	}

	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())

	handlers := NewHandlers(voucherService, userService, activityService, reporter, logger)

	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(ActorMiddleware(userRepo))
	{
		vouchers := api.Group("/vouchers")
		{
			vouchers.GET("", handlers.ListVouchers)
			vouchers.GET("/uploaders", RequireCapability(CapGM), handlers.ListUploaders)
			vouchers.GET("/next-number", RequireCapability(CapAccountant), handlers.NextVoucherNumber)
			vouchers.GET("/:id", handlers.GetVoucher)
			vouchers.GET("/:id/document", handlers.DownloadVoucherDocument)
			vouchers.POST("", handlers.CreateVoucher)
			vouchers.PATCH("/:id/gm-action", handlers.GMAction)
			vouchers.PATCH("/:id/uploader-action", handlers.UploaderAction)
		}

		api.GET("/reports/download/:status", handlers.DownloadReport)

		logs := api.Group("/logs", RequireCapability(CapAdmin))
		{
			logs.GET("", handlers.RecentLogs)
			logs.GET("/weekly", handlers.WeeklyLogs)
			logs.GET("/range", handlers.LogsInRange)
		}

		users := api.Group("/users", RequireCapability(CapAdmin))
		{
			users.GET("", handlers.ListUsers)
			users.GET("/:id", handlers.GetUser)
			users.POST("", handlers.CreateUser)
			users.PATCH("/:id", handlers.UpdateUser)
			users.DELETE("/:id", handlers.DeleteUser)
		}
	}

	return s
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// Start runs the server until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
