package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TodoCreatedEvent is emitted when a task is created.
type TodoCreatedEvent struct {
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoCreatedV1 is the typed event definition for task creation.
// Subject: events.todo.v1.todo-created
var TodoCreatedV1 = helper.EventDefinition[TodoCreatedEvent](
	"todo", "TodoCreated", "v1",
)

// TodoUpdatedEvent is emitted when task fields change.
type TodoUpdatedEvent struct {
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	Fields    []string  `json:"fields"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodoUpdatedV1 is the typed event definition for task updates.
// Subject: events.todo.v1.todo-updated
var TodoUpdatedV1 = helper.EventDefinition[TodoUpdatedEvent](
	"todo", "TodoUpdated", "v1",
)

// TodoStatusChangedEvent is emitted when a task is completed or reopened.
type TodoStatusChangedEvent struct {
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	Completed bool      `json:"completed"`
	ChangedAt time.Time `json:"changed_at"`
}

// TodoStatusChangedV1 is the typed event definition for status toggles.
// Subject: events.todo.v1.todo-status-changed
var TodoStatusChangedV1 = helper.EventDefinition[TodoStatusChangedEvent](
	"todo", "TodoStatusChanged", "v1",
)

// TodoDeletedEvent is emitted when a task is deleted.
type TodoDeletedEvent struct {
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TodoDeletedV1 is the typed event definition for task deletion.
// Subject: events.todo.v1.todo-deleted
var TodoDeletedV1 = helper.EventDefinition[TodoDeletedEvent](
	"todo", "TodoDeleted", "v1",
)
