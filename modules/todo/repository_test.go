package todo

import (
	"context"
	"errors"
	"net"
	"os"
	"reflect"
	"strconv"
	"testing"
	"time"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/jackc/pgx/v5/pgxpool"
)

func seedTodo(t *testing.T, repo Repository, id, userID string) *domain.Todo {
	t.Helper()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	todo := &domain.Todo{
		ID:        id,
		UserID:    userID,
		Title:     "seed " + id,
		Priority:  domain.PriorityLow,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(testCtx, todo); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return todo
}

func TestNewChanges(t *testing.T) {
	tests := []struct {
		name    string
		payload domain.UpdatePayload
		want    []string
	}{
		{name: "empty", payload: domain.UpdatePayload{}, want: []string{}},
		{
			name:    "title and deadline",
			payload: domain.UpdatePayload{Title: domain.Value("x"), Deadline: domain.Value("2025-01-01")},
			want:    []string{"title", "deadline"},
		},
		{
			name: "all fields",
			payload: domain.UpdatePayload{
				Title:        domain.Value("x"),
				Description:  domain.Null[string](),
				Deadline:     domain.Null[string](),
				Priority:     domain.Value(domain.PriorityHigh),
				TimeEstimate: domain.Null[int](),
			},
			want: []string{"title", "description", "deadline", "priority", "time_estimate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChanges(tt.payload)
			if got := c.Fields(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Fields() = %v, want %v", got, tt.want)
			}
			if c.Empty() != (len(tt.want) == 0) {
				t.Errorf("Empty() = %v, want %v", c.Empty(), len(tt.want) == 0)
			}
		})
	}
}

func TestGormRepository_CRUD(t *testing.T) {
	repo := setupTestRepo(t)
	seedTodo(t, repo, "a", testUser)

	got, err := repo.FindByID(testCtx, testUser, "a")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Title != "seed a" {
		t.Errorf("Title = %q, want 'seed a'", got.Title)
	}

	at := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	changes := NewChanges(domain.UpdatePayload{
		Title:        domain.Value("renamed"),
		TimeEstimate: domain.Value(45),
	})
	updated, err := repo.Update(testCtx, testUser, "a", changes, at)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "renamed" || updated.TimeEstimate == nil || *updated.TimeEstimate != 45 {
		t.Errorf("Update() = %+v, want renamed with estimate 45", updated)
	}
	if !updated.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, at)
	}

	if err := repo.SetCompleted(testCtx, testUser, "a", true, at); err != nil {
		t.Fatalf("SetCompleted() error = %v", err)
	}
	if err := repo.Delete(testCtx, testUser, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.FindByID(testCtx, testUser, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestGormRepository_NotFound(t *testing.T) {
	repo := setupTestRepo(t)
	seedTodo(t, repo, "a", "owner")

	at := time.Now()
	changes := NewChanges(domain.UpdatePayload{Title: domain.Value("x")})

	if _, err := repo.Update(testCtx, testUser, "a", changes, at); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
	if err := repo.SetCompleted(testCtx, testUser, "a", true, at); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetCompleted() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(testCtx, testUser, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestGormRepository_ListScopedToUser(t *testing.T) {
	repo := setupTestRepo(t)
	seedTodo(t, repo, "a", testUser)
	seedTodo(t, repo, "b", testUser)
	seedTodo(t, repo, "c", "other")

	todos, total, err := repo.List(testCtx, testUser, domain.DefaultListQuery())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(todos) != 2 {
		t.Errorf("List() = %d rows, total %d, want 2/2", len(todos), total)
	}
	for _, todo := range todos {
		if todo.UserID != testUser {
			t.Errorf("List() returned row for %s", todo.UserID)
		}
	}
}

func TestPostgresRepository(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(cfg.ConnConfig.Host, strconv.Itoa(int(cfg.ConnConfig.Port))), time.Second)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	conn.Close()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("pgxpool.NewWithConfig() error = %v", err)
	}
	repo := NewPostgresRepository(pool)
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM todos WHERE user_id = $1", "pg-test-user"); err != nil {
		t.Fatalf("cleanup error = %v", err)
	}

	seed := seedTodo(t, repo, "11111111-1111-1111-1111-111111111111", "pg-test-user")
	if err := repo.Create(ctx, seed); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate Create() error = %v, want ErrDuplicateID", err)
	}

	updated, err := repo.Update(ctx, "pg-test-user", seed.ID,
		NewChanges(domain.UpdatePayload{Priority: domain.Value(domain.PriorityUrgent)}), time.Now())
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Priority != domain.PriorityUrgent {
		t.Errorf("Priority = %q, want urgent", updated.Priority)
	}

	todos, total, err := repo.List(ctx, "pg-test-user", domain.DefaultListQuery())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(todos) != 1 {
		t.Errorf("List() = %d rows, total %d, want 1/1", len(todos), total)
	}

	if err := repo.Delete(ctx, "pg-test-user", seed.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.FindByID(ctx, "pg-test-user", seed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID() error = %v, want ErrNotFound", err)
	}
}
