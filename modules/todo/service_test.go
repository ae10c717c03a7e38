package todo

import (
	"context"
	"errors"
	"testing"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
)

const testUser = "user-1"

func TestService_Create_Defaults(t *testing.T) {
	svc := setupTestService(t)

	item, err := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "  Buy milk  "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if item.ID == "" {
		t.Error("expected server-assigned id")
	}
	if item.Title != "Buy milk" {
		t.Errorf("Title = %q, want trimmed 'Buy milk'", item.Title)
	}
	if item.Completed {
		t.Error("expected completed=false")
	}
	if item.Priority != domain.PriorityMedium {
		t.Errorf("Priority = %q, want medium", item.Priority)
	}
	if item.CreatedAt.IsZero() || !item.CreatedAt.Equal(item.UpdatedAt) {
		t.Errorf("timestamps = %v/%v, want equal and set", item.CreatedAt, item.UpdatedAt)
	}
}

func TestService_Create_AllFields(t *testing.T) {
	svc := setupTestService(t)
	high := domain.PriorityHigh

	item, err := svc.Create(testCtx, testUser, domain.CreatePayload{
		Title:        "Write report",
		Description:  strPtr("quarterly"),
		Deadline:     strPtr("2025-03-10"),
		Priority:     &high,
		TimeEstimate: intPtr(90),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Get(testCtx, testUser, item.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Description == nil || *got.Description != "quarterly" {
		t.Errorf("Description = %v, want quarterly", got.Description)
	}
	if got.Deadline == nil || *got.Deadline != "2025-03-10" {
		t.Errorf("Deadline = %v, want 2025-03-10", got.Deadline)
	}
	if got.Priority != domain.PriorityHigh {
		t.Errorf("Priority = %q, want high", got.Priority)
	}
	if got.TimeEstimate == nil || *got.TimeEstimate != 90 {
		t.Errorf("TimeEstimate = %v, want 90", got.TimeEstimate)
	}
}

func TestService_Create_EmptyDeadlineStoredAsNull(t *testing.T) {
	svc := setupTestService(t)

	item, err := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "x", Deadline: strPtr("")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if item.Deadline != nil {
		t.Errorf("Deadline = %q, want nil", *item.Deadline)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create() error = %v, want validation error", err)
	}
	e := domain.AsError(err)
	if len(e.Details) != 1 || e.Details[0].Field != "title" {
		t.Errorf("Details = %+v, want one title issue", e.Details)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.Get(testCtx, testUser, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get() error = %v, want not found", err)
	}
}

func TestService_Get_OtherUser(t *testing.T) {
	svc := setupTestService(t)

	item, err := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "private"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Get(testCtx, "someone-else", item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want not found for other user", err)
	}
	if err := svc.Delete(testCtx, "someone-else", item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete() error = %v, want not found for other user", err)
	}
}

func TestService_MissingIDAndUser(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Get(testCtx, testUser, " "); domain.KindOf(err) != domain.KindMissingID {
		t.Errorf("Get() kind = %s, want %s", domain.KindOf(err), domain.KindMissingID)
	}
	if _, err := svc.List(testCtx, "", domain.ListQuery{}); domain.KindOf(err) != domain.KindUnauthorized {
		t.Errorf("List() kind = %s, want %s", domain.KindOf(err), domain.KindUnauthorized)
	}
}

func TestService_Update(t *testing.T) {
	svc := setupTestService(t)

	item, err := svc.Create(testCtx, testUser, domain.CreatePayload{
		Title:       "Draft",
		Description: strPtr("old"),
		Deadline:    strPtr("2025-04-01"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.Update(testCtx, testUser, item.ID, domain.UpdatePayload{
		Title:       domain.Value("Final"),
		Description: domain.Null[string](),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != "Final" {
		t.Errorf("Title = %q, want Final", updated.Title)
	}
	if updated.Description != nil {
		t.Errorf("Description = %q, want cleared", *updated.Description)
	}
	if updated.Deadline == nil || *updated.Deadline != "2025-04-01" {
		t.Errorf("Deadline = %v, want untouched", updated.Deadline)
	}
	if !updated.UpdatedAt.After(item.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want after %v", updated.UpdatedAt, item.UpdatedAt)
	}
}

func TestService_Update_EmptyPayloadLeavesRowUnchanged(t *testing.T) {
	svc := setupTestService(t)

	item, err := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "Keep"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Update(testCtx, testUser, item.ID, domain.UpdatePayload{})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !got.UpdatedAt.Equal(item.UpdatedAt) || got.Title != item.Title {
		t.Errorf("Update() = %+v, want unchanged %+v", got, item)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.Update(testCtx, testUser, "missing", domain.UpdatePayload{Title: domain.Value("x")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Update() error = %v, want not found", err)
	}
}

func TestService_ToggleStatus(t *testing.T) {
	svc := setupTestService(t)

	item, err := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "Toggle me"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	status, err := svc.ToggleStatus(testCtx, testUser, item.ID, true)
	if err != nil {
		t.Fatalf("ToggleStatus() error = %v", err)
	}
	if status.ID != item.ID || !status.Completed {
		t.Errorf("ToggleStatus() = %+v, want completed", status)
	}

	got, err := svc.Get(testCtx, testUser, item.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Completed || got.Title != "Toggle me" {
		t.Errorf("Get() = %+v, want completed with title untouched", got)
	}

	if _, err := svc.ToggleStatus(testCtx, testUser, "missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ToggleStatus() error = %v, want not found", err)
	}
}

func TestService_List_Pagination(t *testing.T) {
	svc := setupTestService(t)
	for i := 0; i < 7; i++ {
		if _, err := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "task"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		page      int
		limit     int
		wantItems int
		wantPages int
	}{
		{name: "first page", page: 1, limit: 3, wantItems: 3, wantPages: 3},
		{name: "last partial page", page: 3, limit: 3, wantItems: 1, wantPages: 3},
		{name: "beyond range", page: 9, limit: 3, wantItems: 0, wantPages: 3},
		{name: "exact fit", page: 1, limit: 7, wantItems: 7, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(testCtx, testUser, domain.ListQuery{Page: tt.page, Limit: tt.limit})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list.Todos) != tt.wantItems {
				t.Errorf("len(Todos) = %d, want %d", len(list.Todos), tt.wantItems)
			}
			if list.Pagination.Total != 7 {
				t.Errorf("Total = %d, want 7", list.Pagination.Total)
			}
			if list.Pagination.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", list.Pagination.TotalPages, tt.wantPages)
			}
		})
	}
}

func TestService_List_FilterAndSort(t *testing.T) {
	svc := setupTestService(t)

	first, _ := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "first"})
	second, _ := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "second"})
	if _, err := svc.ToggleStatus(testCtx, testUser, first.ID, true); err != nil {
		t.Fatalf("ToggleStatus() error = %v", err)
	}

	done, err := svc.List(testCtx, testUser, domain.ListQuery{Status: domain.StatusCompleted})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(done.Todos) != 1 || done.Todos[0].ID != first.ID {
		t.Errorf("completed = %+v, want only %s", done.Todos, first.ID)
	}

	open, err := svc.List(testCtx, testUser, domain.ListQuery{Status: domain.StatusIncomplete})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(open.Todos) != 1 || open.Todos[0].ID != second.ID {
		t.Errorf("incomplete = %+v, want only %s", open.Todos, second.ID)
	}

	asc, err := svc.List(testCtx, testUser, domain.ListQuery{Sort: domain.SortCreatedAt, Order: domain.OrderAsc})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(asc.Todos) != 2 || asc.Todos[0].ID != first.ID {
		t.Errorf("asc order = %+v, want %s first", asc.Todos, first.ID)
	}

	desc, err := svc.List(testCtx, testUser, domain.ListQuery{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(desc.Todos) != 2 || desc.Todos[0].ID != second.ID {
		t.Errorf("default order = %+v, want %s first", desc.Todos, second.ID)
	}
}

func TestService_List_InvalidQuery(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.List(testCtx, testUser, domain.ListQuery{Limit: 500})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("List() error = %v, want invalid parameters", err)
	}
}

func TestService_Delete(t *testing.T) {
	svc := setupTestService(t)

	item, err := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "Remove"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Delete(testCtx, testUser, item.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(testCtx, testUser, item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}

	list, err := svc.List(testCtx, testUser, domain.ListQuery{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.Pagination.Total != 0 || len(list.Todos) != 0 {
		t.Errorf("List() = %+v, want empty", list)
	}
}

type failingCreateRepo struct {
	*GormRepository
}

func (failingCreateRepo) Create(_ context.Context, _ *domain.Todo) error {
	return errors.New("disk full")
}

func TestService_Create_StoreFailure(t *testing.T) {
	svc := NewService(failingCreateRepo{setupTestRepo(t)}, nil, nil, newMockLogger())

	_, err := svc.Create(testCtx, testUser, domain.CreatePayload{Title: "x"})
	if domain.KindOf(err) != domain.KindCreateFailed {
		t.Fatalf("Create() kind = %s, want %s", domain.KindOf(err), domain.KindCreateFailed)
	}
}
