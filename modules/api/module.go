// Package api exposes the todo services over HTTP with Fiber.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/KamilBuksa/SimpleTodo/modules/todo"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

// Config configures the HTTP server.
type Config struct {
	Port              int
	DefaultUserID     string
	RateLimit         RateLimitConfig
	DisableRequestLog bool // no Fiber log line per request
}

// Module is the driving adapter that exposes REST endpoints.
// It reaches the todo module only through todo.TodoPort.
type Module struct {
	cfg       Config
	app       *fiber.App
	todos     todo.TodoPort
	redis     *redis.Client
	limiter   *rateLimiter
	logger    types.Logger
	startedAt time.Time
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the API module.
func NewModule(cfg Config, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		logger: logger.WithModule("api"),
	}
}

// NewModuleWithPort creates an API module over an existing port, bypassing
// the service container.
func NewModuleWithPort(cfg Config, port todo.TodoPort, logger types.Logger) *Module {
	m := NewModule(cfg, logger)
	m.todos = port
	return m
}

func (m *Module) Name() string {
	return "api"
}

func (m *Module) Dependencies() []string {
	return []string{"todo"}
}

func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "todo" {
		m.todos = todo.NewTodoAdapter(container)
	}
}

// Start builds the Fiber app and listens in a goroutine.
// Availability is reported through Health.
func (m *Module) Start(ctx context.Context) error {
	if m.todos == nil {
		return fmt.Errorf("todo dependency not set")
	}

	if m.cfg.RateLimit.RedisAddr != "" {
		m.redis = redis.NewClient(&redis.Options{Addr: m.cfg.RateLimit.RedisAddr})
		if err := m.redis.Ping(ctx).Err(); err != nil {
			m.logger.Warn("Redis unreachable, rate limiting disabled", "addr", m.cfg.RateLimit.RedisAddr, "error", err)
			_ = m.redis.Close()
			m.redis = nil
		} else {
			m.limiter = newRateLimiter(m.redis, m.cfg.RateLimit, m.logger)
		}
	}

	m.app = m.newApp()
	m.startedAt = time.Now()

	addr := fmt.Sprintf(":%d", m.cfg.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", addr, "rate_limited", m.limiter != nil)
	return nil
}

// newApp wires middleware and routes.
func (m *Module) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "SimpleTodo",
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          m.errorHandler,
	})

	app.Use(recover.New())
	if !m.cfg.DisableRequestLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New())
	if m.limiter != nil {
		app.Use(m.limiter.middleware())
	}

	m.setupRoutes(app)
	return app
}

// Stop shuts down the HTTP server and the rate limiter's Redis client.
func (m *Module) Stop(_ context.Context) error {
	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			m.logger.Warn("Failed to close Redis client", "error", err)
		}
	}
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.Shutdown()
}

func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: m.healthDetails(),
	}
}

func (m *Module) healthDetails() map[string]any {
	details := map[string]any{
		"port":         m.cfg.Port,
		"rate_limited": m.limiter != nil,
	}
	if !m.startedAt.IsZero() {
		details["uptime"] = time.Since(m.startedAt).Round(time.Second).String()
	}
	return details
}
