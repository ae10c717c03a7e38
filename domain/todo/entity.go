// Package todo holds the task entity, its wire shapes and the typed errors shared by the server and the client.
package todo

import (
	"math"
	"time"
)

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Limits on task fields.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 4000
	MinTimeEstimate      = 1
	MaxTimeEstimate      = 10080 // 7 days in minutes
)

// Todo is the persisted task row. UserID never leaves the server.
type Todo struct {
	ID           string    `gorm:"primarykey;size:36"`
	UserID       string    `gorm:"size:36;not null;index"`
	Title        string    `gorm:"size:255;not null"`
	Description  *string   `gorm:"size:4000"`
	Deadline     *string   `gorm:"size:40"`
	Priority     Priority  `gorm:"size:10;not null"`
	TimeEstimate *int
	Completed    bool      `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

// TableName pins the table name used by both repositories.
func (Todo) TableName() string {
	return "todos"
}

// ToItem converts the row into its client-facing DTO.
func (t *Todo) ToItem() Item {
	return Item{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Deadline:     t.Deadline,
		Priority:     t.Priority,
		TimeEstimate: t.TimeEstimate,
		Completed:    t.Completed,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// Item is the task as exposed over HTTP.
type Item struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	Deadline     *string   `json:"deadline"`
	Priority     Priority  `json:"priority"`
	TimeEstimate *int      `json:"time_estimate"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StatusChange is the result of toggling a task.
type StatusChange struct {
	ID        string    `json:"id"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusFilter selects tasks by completion.
type StatusFilter string

const (
	StatusAll        StatusFilter = "all"
	StatusCompleted  StatusFilter = "completed"
	StatusIncomplete StatusFilter = "incomplete"
)

// SortField is a column tasks can be ordered by.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortDeadline  SortField = "deadline"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Paging defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery selects one page of a user's tasks.
type ListQuery struct {
	Status StatusFilter `json:"status"`
	Page   int          `json:"page"`
	Limit  int          `json:"limit"`
	Sort   SortField    `json:"sort"`
	Order  SortOrder    `json:"order"`
}

// DefaultListQuery returns the query used when no parameters are given.
func DefaultListQuery() ListQuery {
	return ListQuery{
		Status: StatusAll,
		Page:   DefaultPage,
		Limit:  DefaultLimit,
		Sort:   SortCreatedAt,
		Order:  OrderDesc,
	}
}

// Offset returns the number of rows skipped before the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination describes where a page sits in the full result.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes total_pages as ceil(total/limit).
func NewPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 && total > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: pages,
	}
}

// List is one page of tasks.
type List struct {
	Todos      []Item     `json:"todos"`
	Pagination Pagination `json:"pagination"`
}
