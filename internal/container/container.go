// Package container manages application dependency wiring and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/application/service"
	"github.com/Sadiqmanga/voucher-system/internal/config"
	"github.com/Sadiqmanga/voucher-system/internal/infrastructure/email"
	"github.com/Sadiqmanga/voucher-system/internal/infrastructure/persistence/repository"
	httpiface "github.com/Sadiqmanga/voucher-system/internal/interfaces/http"
	"github.com/Sadiqmanga/voucher-system/internal/render"
	"github.com/Sadiqmanga/voucher-system/pkg/database"
)

// Container holds all application components.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	db           *database.DB
	txManager    *repository.TxManager
	repositories *RepositoryBundle
	emailSender  *email.SMTPSender

	// Application
	services *ServiceBundle
	reporter *render.ExcelReporter

	// Interfaces
	httpServer *httpiface.Server

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Voucher     port.VoucherRepository
	User        port.UserRepository
	ActivityLog port.ActivityLogRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Voucher      service.VoucherService
	User         service.UserService
	Activity     service.ActivityService
	Notification service.NotificationService
}

// New creates a container from configuration. Components are not
// initialized until Start is called.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Container{config: cfg, logger: logger}, nil
}

// Start initializes all components in dependency order:
// database and migrations, repositories, services, HTTP server.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	c.initServices()
	c.logger.Info("Application services initialized")

	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.ready.Store(true)
	return nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	db, err := database.New(database.Config{
		Path:            c.config.Database.Path,
		MaxOpenConns:    c.config.Database.MaxOpenConns,
		MaxIdleConns:    c.config.Database.MaxIdleConns,
		ConnMaxLifetime: c.config.Database.ConnMaxLifetime,
	}, c.logger)
	if err != nil {
		return err
	}

	migrator := database.NewMigrator(db, c.logger)
	if err := migrator.Run(ctx, c.config.Database.MigrationsDir); err != nil {
		db.Close()
		return fmt.Errorf("migrations: %w", err)
	}

	c.db = db
	c.txManager = repository.NewTxManager(db.DB, c.logger)
	c.repositories = &RepositoryBundle{
		Voucher:     repository.NewVoucherRepository(db.DB, c.logger),
		User:        repository.NewUserRepository(db.DB, c.logger),
		ActivityLog: repository.NewActivityLogRepository(db.DB, c.logger),
	}
	return nil
}

func (c *Container) initServices() {
	serviceLogger := &zapLoggerAdapter{logger: c.logger}

	c.emailSender = email.NewSMTPSender(email.Config{
		Host:       c.config.SMTP.Host,
		Port:       c.config.SMTP.Port,
		User:       c.config.SMTP.User,
		Pass:       c.config.SMTP.Pass,
		SenderName: c.config.SMTP.SenderName,
	}, c.logger)

	activity := service.NewActivityService(c.repositories.ActivityLog, serviceLogger)
	notifier := service.NewNotificationService(c.emailSender, c.config.SMTP.BaseURL, serviceLogger)
	allocator := service.NewNumberAllocator(c.repositories.Voucher, c.config.Voucher.NumberSeed)

	c.services = &ServiceBundle{
		Activity:     activity,
		Notification: notifier,
		Voucher: service.NewVoucherService(
			c.repositories.Voucher,
			c.repositories.User,
			c.txManager,
			allocator,
			activity,
			notifier,
			serviceLogger,
		),
		User: service.NewUserService(c.repositories.User, c.repositories.Voucher, activity, serviceLogger),
	}

	c.reporter = render.NewExcelReporter(c.logger)
}

func (c *Container) initHTTPServer() {
	c.httpServer = httpiface.NewServer(
		httpiface.ServerConfig{
			Host:         c.config.Server.Host,
			Port:         c.config.Server.Port,
			ReadTimeout:  c.config.Server.ReadTimeout,
			WriteTimeout: c.config.Server.WriteTimeout,
		},
		c.services.Voucher,
		c.services.User,
		c.services.Activity,
		c.reporter,
		c.repositories.User,
		&zapLoggerAdapter{logger: c.logger},
	)
}

// Run serves HTTP until ctx is cancelled.
func (c *Container) Run(ctx context.Context) error {
	if !c.ready.Load() {
		return fmt.Errorf("container not started")
	}
	return c.httpServer.Start(ctx)
}

// Close shuts down components in reverse order of initialization.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors: %v", len(errs), errs)
	}
	c.logger.Info("Container closed")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// zapLoggerAdapter adapts zap.Logger to the narrow logger interfaces
// the service and http layers depend on.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
