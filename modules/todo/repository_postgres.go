package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const todoColumns = "id, user_id, title, description, deadline, priority, time_estimate, completed, created_at, updated_at"

var schemaSQL = []string{`
CREATE TABLE IF NOT EXISTS todos (
	id            VARCHAR(36) PRIMARY KEY,
	user_id       VARCHAR(36) NOT NULL,
	title         VARCHAR(255) NOT NULL,
	description   VARCHAR(4000),
	deadline      VARCHAR(40),
	priority      VARCHAR(10) NOT NULL DEFAULT 'medium',
	time_estimate INTEGER CHECK (time_estimate BETWEEN 1 AND 10080),
	completed     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_completed ON todos (completed)`,
}

// ErrDuplicateID is returned when an insert collides with an existing id.
var ErrDuplicateID = errors.New("todo id already exists")

// PostgresRepository is the pgx-backed repository used when DATABASE_URL is set.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository over a pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the todos table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create todos schema: %w", err)
		}
	}
	return nil
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var t domain.Todo
	var priority string
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Deadline,
		&priority, &t.TimeEstimate, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Priority = domain.Priority(priority)
	return &t, nil
}

func statusClause(s domain.StatusFilter) string {
	switch s {
	case domain.StatusCompleted:
		return " AND completed = TRUE"
	case domain.StatusIncomplete:
		return " AND completed = FALSE"
	}
	return ""
}

// List returns one page of the user's tasks and the total number of matches.
func (r *PostgresRepository) List(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Todo, int64, error) {
	where := "WHERE user_id = $1" + statusClause(q.Status)

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM todos "+where, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count todos: %w", err)
	}

	dir := sortDirection(q.Order)
	sql := fmt.Sprintf("SELECT %s FROM todos %s ORDER BY %s %s, id %s LIMIT $2 OFFSET $3",
		todoColumns, where, sortColumn(q.Sort), dir, dir)
	rows, err := r.pool.Query(ctx, sql, userID, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0, q.Limit)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, total, nil
}

// FindByID returns the task when it exists and belongs to userID.
func (r *PostgresRepository) FindByID(ctx context.Context, userID, id string) (*domain.Todo, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE id = $1 AND user_id = $2", id, userID)
	t, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return t, nil
}

// Create inserts a new task.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Todo) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO todos ("+todoColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		t.ID, t.UserID, t.Title, t.Description, t.Deadline,
		string(t.Priority), t.TimeEstimate, t.Completed, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isPgDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// Update writes the given columns plus updated_at and returns the stored row.
func (r *PostgresRepository) Update(ctx context.Context, userID, id string, changes Changes, at time.Time) (*domain.Todo, error) {
	sets := make([]string, 0, len(changes.columns)+1)
	args := make([]any, 0, len(changes.columns)+3)
	for _, col := range changes.columns {
		args = append(args, pgValue(col.value))
		sets = append(sets, fmt.Sprintf("%s = $%d", col.name, len(args)))
	}
	args = append(args, at)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id, userID)

	sql := fmt.Sprintf("UPDATE todos SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), todoColumns)
	t, err := scanTodo(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return t, nil
}

// SetCompleted writes only completed and updated_at.
func (r *PostgresRepository) SetCompleted(ctx context.Context, userID, id string, completed bool, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE todos SET completed = $1, updated_at = $2 WHERE id = $3 AND user_id = $4",
		completed, at, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update todo status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the task.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM todos WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the pool.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// pgValue unwraps named string types that pgx would otherwise not encode as text.
func pgValue(v any) any {
	if p, ok := v.(domain.Priority); ok {
		return string(p)
	}
	return v
}

// isPgDuplicateKeyError checks if error is a PostgreSQL unique violation.
func isPgDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
