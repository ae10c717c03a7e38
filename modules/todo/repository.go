package todo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"gorm.io/gorm"
)

// Repository stores tasks scoped to their owner.
type Repository interface {
	List(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Todo, int64, error)
	FindByID(ctx context.Context, userID, id string) (*domain.Todo, error)
	Create(ctx context.Context, t *domain.Todo) error
	Update(ctx context.Context, userID, id string, changes Changes, at time.Time) (*domain.Todo, error)
	SetCompleted(ctx context.Context, userID, id string, completed bool, at time.Time) error
	Delete(ctx context.Context, userID, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Changes is the set of columns an update writes, in a stable order.
type Changes struct {
	columns []column
}

type column struct {
	name  string
	value any
}

// NewChanges turns a validated payload into column writes. An empty payload yields no columns.
func NewChanges(p domain.UpdatePayload) Changes {
	var c Changes
	if p.Title.Set {
		c.columns = append(c.columns, column{"title", p.Title.Value})
	}
	if p.Description.Set {
		c.columns = append(c.columns, column{"description", p.Description.Ptr()})
	}
	if p.Deadline.Set {
		var deadline *string
		if !p.Deadline.Null && p.Deadline.Value != "" {
			deadline = p.Deadline.Ptr()
		}
		c.columns = append(c.columns, column{"deadline", deadline})
	}
	if p.Priority.Set {
		c.columns = append(c.columns, column{"priority", p.Priority.Value})
	}
	if p.TimeEstimate.Set {
		c.columns = append(c.columns, column{"time_estimate", p.TimeEstimate.Ptr()})
	}
	return c
}

// Empty reports whether the update writes nothing.
func (c Changes) Empty() bool {
	return len(c.columns) == 0
}

// Fields lists the written column names.
func (c Changes) Fields() []string {
	names := make([]string, 0, len(c.columns))
	for _, col := range c.columns {
		names = append(names, col.name)
	}
	return names
}

// sortColumn whitelists the ORDER BY column.
func sortColumn(f domain.SortField) string {
	switch f {
	case domain.SortUpdatedAt:
		return "updated_at"
	case domain.SortDeadline:
		return "deadline"
	default:
		return "created_at"
	}
}

func sortDirection(o domain.SortOrder) string {
	if o == domain.OrderAsc {
		return "ASC"
	}
	return "DESC"
}

// GormRepository is the SQLite-backed repository.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository over an open GORM connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the todos table.
func (r *GormRepository) Migrate() error {
	if err := r.db.AutoMigrate(&domain.Todo{}); err != nil {
		return fmt.Errorf("failed to migrate todos: %w", err)
	}
	return nil
}

// List returns one page of the user's tasks and the total number of matches.
func (r *GormRepository) List(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Todo, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		switch q.Status {
		case domain.StatusCompleted:
			db = db.Where("completed = ?", true)
		case domain.StatusIncomplete:
			db = db.Where("completed = ?", false)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Todo{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count todos: %w", err)
	}

	var todos []domain.Todo
	dir := sortDirection(q.Order)
	err := r.db.WithContext(ctx).Scopes(filter).
		Order(sortColumn(q.Sort) + " " + dir + ", id " + dir).
		Offset(q.Offset()).Limit(q.Limit).
		Find(&todos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, total, nil
}

// FindByID returns the task when it exists and belongs to userID.
func (r *GormRepository) FindByID(ctx context.Context, userID, id string) (*domain.Todo, error) {
	var t domain.Todo
	if err := r.db.WithContext(ctx).First(&t, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return &t, nil
}

// Create inserts a new task.
func (r *GormRepository) Create(ctx context.Context, t *domain.Todo) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// Update writes the given columns plus updated_at and returns the stored row.
func (r *GormRepository) Update(ctx context.Context, userID, id string, changes Changes, at time.Time) (*domain.Todo, error) {
	values := make(map[string]any, len(changes.columns)+1)
	for _, col := range changes.columns {
		values[col.name] = col.value
	}
	values["updated_at"] = at

	result := r.db.WithContext(ctx).Model(&domain.Todo{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(values)
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, userID, id)
}

// SetCompleted writes only completed and updated_at.
func (r *GormRepository) SetCompleted(ctx context.Context, userID, id string, completed bool, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Todo{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"completed": completed, "updated_at": at})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update todo status: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the task.
func (r *GormRepository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Todo{}, "id = ? AND user_id = ?", id, userID)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the underlying connection.
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
