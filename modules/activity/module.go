// Package activity keeps a bounded feed of recent task events.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/KamilBuksa/SimpleTodo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 100

// Entry is one recorded event.
type Entry struct {
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RecentRequest asks for the newest entries of one user. Limit 0 means all.
type RecentRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// RecentResponse lists entries newest first.
type RecentResponse struct {
	Entries []Entry `json:"entries"`
}

// Module subscribes to todo events and records them.
type Module struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	logger   types.Logger
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates an activity feed holding at most capacity entries.
func NewModule(capacity int, logger types.Logger) *Module {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Module{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		logger:   logger.WithModule("activity"),
	}
}

func (m *Module) Name() string {
	return "activity"
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoCreatedV1, m.handleCreated, m); err != nil {
		return fmt.Errorf("failed to register TodoCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoUpdatedV1, m.handleUpdated, m); err != nil {
		return fmt.Errorf("failed to register TodoUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoStatusChangedV1, m.handleStatusChanged, m); err != nil {
		return fmt.Errorf("failed to register TodoStatusChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoDeletedV1, m.handleDeleted, m); err != nil {
		return fmt.Errorf("failed to register TodoDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", "TodoCreated, TodoUpdated, TodoStatusChanged, TodoDeleted")
	return nil
}

// RegisterServices registers services.activity.recent.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "recent", json.Unmarshal, json.Marshal, m.handleRecent,
	); err != nil {
		return fmt.Errorf("failed to register recent service: %w", err)
	}
	return nil
}

func (m *Module) handleCreated(_ context.Context, e events.TodoCreatedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TodoID:    e.TodoID,
		UserID:    e.UserID,
		Type:      "todo_created",
		Message:   fmt.Sprintf("Created %q (%s priority)", e.Title, e.Priority),
		Timestamp: e.CreatedAt,
	})
	return nil
}

func (m *Module) handleUpdated(_ context.Context, e events.TodoUpdatedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TodoID:    e.TodoID,
		UserID:    e.UserID,
		Type:      "todo_updated",
		Message:   fmt.Sprintf("Updated %v", e.Fields),
		Timestamp: e.UpdatedAt,
	})
	return nil
}

func (m *Module) handleStatusChanged(_ context.Context, e events.TodoStatusChangedEvent, _ *mono.Msg) error {
	msg := "Reopened"
	if e.Completed {
		msg = "Completed"
	}
	m.record(Entry{
		TodoID:    e.TodoID,
		UserID:    e.UserID,
		Type:      "todo_status_changed",
		Message:   msg,
		Timestamp: e.ChangedAt,
	})
	return nil
}

func (m *Module) handleDeleted(_ context.Context, e events.TodoDeletedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TodoID:    e.TodoID,
		UserID:    e.UserID,
		Type:      "todo_deleted",
		Message:   "Deleted",
		Timestamp: e.DeletedAt,
	})
	return nil
}

func (m *Module) handleRecent(_ context.Context, req RecentRequest, _ *mono.Msg) (RecentResponse, error) {
	return RecentResponse{Entries: m.Recent(req.UserID, req.Limit)}, nil
}

// record appends e, dropping the oldest entry once the feed is full.
func (m *Module) record(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == m.capacity {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, e)
	m.logger.Debug("Recorded activity", "type", e.Type, "todo_id", e.TodoID)
}

// Recent returns up to limit entries for userID, newest first.
func (m *Module) Recent(userID string, limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0)
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID != userID {
			continue
		}
		out = append(out, m.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Module started, listening for todo events")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}

func (m *Module) Health(_ context.Context) mono.HealthStatus {
	m.mu.RLock()
	n := len(m.entries)
	m.mu.RUnlock()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"entries": n, "capacity": m.capacity},
	}
}
