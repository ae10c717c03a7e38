// Package todo provides task persistence and the todo request-reply services.
package todo

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/events"
	"github.com/KamilBuksa/SimpleTodo/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config selects the store. DatabaseURL wins over DBPath when set.
type Config struct {
	DBPath      string
	DatabaseURL string
	Debug       bool
}

// Module owns the task store and exposes it as services.todo.*.
type Module struct {
	cfg         Config
	repo        Repository
	service     *Service
	cachePlugin *cache.PluginModule
	eventBus    mono.EventBus
	logger      types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the todo module.
func NewModule(cfg Config, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		logger: logger.WithModule("todo"),
	}
}

// NewModuleWithService creates a module around an existing service.
// Start skips opening a database.
func NewModuleWithService(svc *Service, logger types.Logger) *Module {
	return &Module{
		service: svc,
		logger:  logger.WithModule("todo"),
	}
}

func (m *Module) Name() string {
	return "todo"
}

func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TodoCreatedV1.ToBase(),
		events.TodoUpdatedV1.ToBase(),
		events.TodoStatusChangedV1.ToBase(),
		events.TodoDeletedV1.ToBase(),
	}
}

// SetPlugin receives the optional cache plugin before Start.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "cache" {
		return
	}
	if p, ok := plugin.(*cache.PluginModule); ok {
		m.cachePlugin = p
		m.logger.Info("Cache plugin injected")
	}
}

// RegisterServices registers services.todo.{list,get,create,update,toggle,delete}.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceList, json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceList, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGet, json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGet, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreate, json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreate, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdate, json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdate, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceToggle, json.Unmarshal, json.Marshal, m.handleToggle,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceToggle, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDelete, json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDelete, err)
	}

	m.logger.Info("Registered services", "services", "services.todo.{list,get,create,update,toggle,delete}")
	return nil
}

// Start opens the store and builds the service.
func (m *Module) Start(ctx context.Context) error {
	if m.service != nil {
		m.logger.Info("Module started with injected service")
		return nil
	}

	repo, err := m.openRepository(ctx)
	if err != nil {
		return err
	}
	m.repo = repo

	var c cache.CacheService
	if m.cachePlugin != nil {
		c = m.cachePlugin.Port()
	}
	if m.eventBus == nil {
		m.logger.Warn("Event bus not set, events will not be published")
	}
	m.service = NewService(repo, c, m.eventBus, m.logger)

	m.logger.Info("Module started", "cached", c != nil)
	return nil
}

func (m *Module) openRepository(ctx context.Context) (Repository, error) {
	if m.cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, m.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		repo := NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		m.logger.Info("Connected to PostgreSQL")
		return repo, nil
	}

	if m.cfg.DBPath == "" {
		return nil, ErrNoDatabase
	}
	level := logger.Silent
	if m.cfg.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(m.cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repo := NewGormRepository(db)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}
	m.logger.Info("Database initialized", "path", m.cfg.DBPath)
	return repo, nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.repo != nil {
		if err := m.repo.Close(); err != nil {
			m.logger.WithError(err).Warn("Failed to close database")
		}
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health pings the store.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "service not initialized",
		}
	}
	if err := m.service.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	driver := "sqlite"
	if m.cfg.DatabaseURL != "" {
		driver = "pgx/v5"
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": driver,
			"cached": m.cachePlugin != nil,
		},
	}
}

// Service returns the task service. It is nil before Start.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) handleList(ctx context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	list, err := m.service.List(ctx, req.UserID, req.Query)
	return ListResponse{List: list, Error: newErrorBody(err)}, nil
}

func (m *Module) handleGet(ctx context.Context, req GetRequest, _ *mono.Msg) (ItemResponse, error) {
	item, err := m.service.Get(ctx, req.UserID, req.TodoID)
	return ItemResponse{Item: item, Error: newErrorBody(err)}, nil
}

func (m *Module) handleCreate(ctx context.Context, req CreateRequest, _ *mono.Msg) (ItemResponse, error) {
	item, err := m.service.Create(ctx, req.UserID, req.Payload)
	return ItemResponse{Item: item, Error: newErrorBody(err)}, nil
}

func (m *Module) handleUpdate(ctx context.Context, req UpdateRequest, _ *mono.Msg) (ItemResponse, error) {
	item, err := m.service.Update(ctx, req.UserID, req.TodoID, req.Payload)
	return ItemResponse{Item: item, Error: newErrorBody(err)}, nil
}

func (m *Module) handleToggle(ctx context.Context, req ToggleRequest, _ *mono.Msg) (StatusResponse, error) {
	status, err := m.service.ToggleStatus(ctx, req.UserID, req.TodoID, req.Completed)
	return StatusResponse{Status: status, Error: newErrorBody(err)}, nil
}

func (m *Module) handleDelete(ctx context.Context, req DeleteRequest, _ *mono.Msg) (DeleteResponse, error) {
	if err := m.service.Delete(ctx, req.UserID, req.TodoID); err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			m.logger.Error("Delete failed", "todo_id", req.TodoID, "error", err)
		}
		return DeleteResponse{Error: newErrorBody(err)}, nil
	}
	return DeleteResponse{Deleted: true}, nil
}
