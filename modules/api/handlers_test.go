package api

import (
	"cmp"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/modules/todo"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

const testUserID = "11111111-1111-1111-1111-111111111111"

// setupTestApp builds the Fiber app over a real service on in-memory SQLite.
func setupTestApp(t *testing.T, userID string) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := todo.NewGormRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	svc := todo.NewService(repo, nil, nil, &mockLogger{})
	m := NewModuleWithPort(Config{DefaultUserID: userID, DisableRequestLog: true}, svc, &mockLogger{})
	return m.newApp()
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test(%s %s) error = %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind domain.Kind
		want int
	}{
		{domain.KindInvalidParameters, 400},
		{domain.KindCreateFailed, 400},
		{domain.KindMissingID, 400},
		{domain.KindValidation, 422},
		{domain.KindNotFound, 404},
		{domain.KindUnauthorized, 401},
		{domain.KindInternal, 500},
		{domain.Kind("SOMETHING_ELSE"), 500},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := statusForKind(tt.kind); got != tt.want {
				t.Errorf("statusForKind(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestHandlers_Scenario(t *testing.T) {
	app := setupTestApp(t, testUserID)

	resp := doRequest(t, app, http.MethodPost, "/api/todos", `{"title":"Buy milk"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201", resp.StatusCode)
	}
	created := decodeBody[domain.Item](t, resp)
	if created.Completed || created.Priority != domain.PriorityMedium {
		t.Errorf("created = %+v, want incomplete medium", created)
	}

	list := decodeBody[domain.List](t, doRequest(t, app, http.MethodGet, "/api/todos", ""))
	if len(list.Todos) != 1 || list.Pagination.Total != 1 {
		t.Fatalf("list = %+v, want one item", list)
	}

	resp = doRequest(t, app, http.MethodPatch, "/api/todos/"+created.ID, `{"completed":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH status = %d, want 200", resp.StatusCode)
	}
	status := decodeBody[domain.StatusChange](t, resp)
	if status.ID != created.ID || !status.Completed {
		t.Errorf("status = %+v, want completed", status)
	}

	active := decodeBody[domain.List](t, doRequest(t, app, http.MethodGet, "/api/todos?status=incomplete", ""))
	if active.Pagination.Total != 0 {
		t.Errorf("incomplete total = %d, want 0", active.Pagination.Total)
	}
	got := decodeBody[domain.Item](t, doRequest(t, app, http.MethodGet, "/api/todos/"+created.ID, ""))
	if !got.Completed {
		t.Error("GET after toggle: completed = false, want true")
	}

	resp = doRequest(t, app, http.MethodDelete, "/api/todos/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", resp.StatusCode)
	}
	empty := decodeBody[domain.List](t, doRequest(t, app, http.MethodGet, "/api/todos", ""))
	if len(empty.Todos) != 0 || empty.Pagination.Total != 0 || empty.Pagination.TotalPages != 0 {
		t.Errorf("list after delete = %+v, want empty", empty)
	}
}

func TestHandlers_Update(t *testing.T) {
	app := setupTestApp(t, testUserID)
	created := decodeBody[domain.Item](t, doRequest(t, app, http.MethodPost, "/api/todos",
		`{"title":"Draft","description":"notes","time_estimate":30}`))

	resp := doRequest(t, app, http.MethodPut, "/api/todos/"+created.ID, `{"title":"Final","description":null}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", resp.StatusCode)
	}
	updated := decodeBody[domain.Item](t, resp)
	if updated.Title != "Final" || updated.Description != nil {
		t.Errorf("updated = %+v, want title Final and description cleared", updated)
	}
	if updated.TimeEstimate == nil || *updated.TimeEstimate != 30 {
		t.Errorf("TimeEstimate = %v, want untouched 30", updated.TimeEstimate)
	}

	resp = doRequest(t, app, http.MethodPut, "/api/todos/"+created.ID, `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty PUT status = %d, want 200", resp.StatusCode)
	}
	same := decodeBody[domain.Item](t, resp)
	if !same.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Errorf("empty PUT changed updated_at: %v -> %v", updated.UpdatedAt, same.UpdatedAt)
	}
}

func TestHandlers_Errors(t *testing.T) {
	app := setupTestApp(t, testUserID)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   domain.Kind
		wantField  string
	}{
		{name: "bad query", method: http.MethodGet, path: "/api/todos?limit=500", wantStatus: 400, wantCode: domain.KindInvalidParameters, wantField: "limit"},
		{name: "missing todo", method: http.MethodGet, path: "/api/todos/nope", wantStatus: 404, wantCode: domain.KindNotFound},
		{name: "blank id", method: http.MethodGet, path: "/api/todos/%20", wantStatus: 400, wantCode: domain.KindMissingID},
		{name: "malformed json", method: http.MethodPost, path: "/api/todos", body: `{"title":`, wantStatus: 422, wantCode: domain.KindValidation},
		{name: "array body", method: http.MethodPost, path: "/api/todos", body: `[1,2]`, wantStatus: 422, wantCode: domain.KindValidation},
		{name: "missing title", method: http.MethodPost, path: "/api/todos", body: `{"priority":"low"}`, wantStatus: 422, wantCode: domain.KindValidation, wantField: "title"},
		{name: "bad estimate", method: http.MethodPost, path: "/api/todos", body: `{"title":"x","time_estimate":2.5}`, wantStatus: 422, wantCode: domain.KindValidation, wantField: "time_estimate"},
		{name: "update missing", method: http.MethodPut, path: "/api/todos/nope", body: `{"title":"x"}`, wantStatus: 404, wantCode: domain.KindNotFound},
		{name: "toggle not boolean", method: http.MethodPatch, path: "/api/todos/nope", body: `{"completed":"yes"}`, wantStatus: 422, wantCode: domain.KindValidation, wantField: "completed"},
		{name: "toggle missing", method: http.MethodPatch, path: "/api/todos/nope", body: `{"completed":false}`, wantStatus: 404, wantCode: domain.KindNotFound},
		{name: "delete missing", method: http.MethodDelete, path: "/api/todos/nope", wantStatus: 404, wantCode: domain.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decodeBody[ErrorResponse](t, resp)
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.wantCode)
			}
			if tt.wantField == "" {
				return
			}
			found := false
			for _, is := range body.Error.Details {
				found = found || is.Field == tt.wantField
			}
			if !found {
				t.Errorf("details = %+v, want issue on %s", body.Error.Details, tt.wantField)
			}
		})
	}
}

func TestHandlers_Unauthorized(t *testing.T) {
	app := setupTestApp(t, "")

	resp := doRequest(t, app, http.MethodGet, "/api/todos", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	body := decodeBody[ErrorResponse](t, resp)
	if body.Error.Code != domain.KindUnauthorized {
		t.Errorf("code = %s, want UNAUTHORIZED", body.Error.Code)
	}
}

func TestHandlers_DefaultUserWhenEnvUnset(t *testing.T) {
	t.Setenv("DEFAULT_USER_ID", "")
	app := setupTestApp(t, cmp.Or(os.Getenv("DEFAULT_USER_ID"), DefaultUserID))

	resp := doRequest(t, app, http.MethodPost, "/api/todos", `{"title":"Buy milk"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201", resp.StatusCode)
	}
	created := decodeBody[domain.Item](t, resp)

	resp = doRequest(t, app, http.MethodGet, "/api/todos", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", resp.StatusCode)
	}
	if list := decodeBody[domain.List](t, resp); len(list.Todos) != 1 {
		t.Fatalf("len(todos) = %d, want 1", len(list.Todos))
	}

	resp = doRequest(t, app, http.MethodPatch, "/api/todos/"+created.ID, `{"completed":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH status = %d, want 200", resp.StatusCode)
	}
	resp = doRequest(t, app, http.MethodDelete, "/api/todos/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", resp.StatusCode)
	}
}

func TestHandlers_Health(t *testing.T) {
	app := setupTestApp(t, testUserID)

	resp := doRequest(t, app, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[HealthResponse](t, resp)
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestHandlers_UnknownRoute(t *testing.T) {
	app := setupTestApp(t, testUserID)

	resp := doRequest(t, app, http.MethodGet, "/nowhere", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	body := decodeBody[ErrorResponse](t, resp)
	if body.Error.Code != domain.KindNotFound {
		t.Errorf("code = %s, want NOT_FOUND", body.Error.Code)
	}
}
