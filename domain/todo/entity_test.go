package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		page      int
		limit     int
		wantPages int
	}{
		{"empty", 0, 1, 10, 0},
		{"exact fit", 20, 1, 10, 2},
		{"partial last page", 21, 3, 10, 3},
		{"single item", 1, 1, 100, 1},
		{"limit one", 7, 2, 1, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.page, tt.limit)
			if p.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.Total != tt.total || p.Page != tt.page || p.Limit != tt.limit {
				t.Errorf("NewPagination() = %+v, inputs not carried through", p)
			}
		})
	}
}

func TestListQuery_Offset(t *testing.T) {
	q := DefaultListQuery()
	if q.Offset() != 0 {
		t.Errorf("Offset() = %d, want 0", q.Offset())
	}
	q.Page = 3
	q.Limit = 25
	if q.Offset() != 50 {
		t.Errorf("Offset() = %d, want 50", q.Offset())
	}
}

func TestPriority_Valid(t *testing.T) {
	for _, p := range Priorities {
		if !p.Valid() {
			t.Errorf("%q.Valid() = false, want true", p)
		}
	}
	if Priority("critical").Valid() {
		t.Error(`"critical".Valid() = true, want false`)
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("get todo: %w", NotFound())

	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf(wrapped) = %s, want %s", got, KindNotFound)
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("KindOf(plain) = %s, want %s", got, KindInternal)
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is(wrapped, ErrNotFound) = false, want true")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Error("errors.Is(wrapped, ErrValidation) = true, want false")
	}
}

func TestAsError(t *testing.T) {
	cause := errors.New("disk full")
	e := AsError(cause)
	if e.Kind != KindInternal {
		t.Errorf("Kind = %s, want %s", e.Kind, KindInternal)
	}
	if !errors.Is(e, cause) {
		t.Error("AsError() lost the cause")
	}

	v := Validation([]Issue{{Field: "title", Message: "Title is required"}})
	if AsError(v) != v {
		t.Error("AsError() should return tagged errors unchanged")
	}
}

func TestUpdatePayload_JSON(t *testing.T) {
	var p UpdatePayload
	if err := json.Unmarshal([]byte(`{"title":"Buy milk","description":null}`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !p.Title.Set || p.Title.Null || p.Title.Value != "Buy milk" {
		t.Errorf("Title = %+v, want set value", p.Title)
	}
	if !p.Description.Set || !p.Description.Null {
		t.Errorf("Description = %+v, want explicit null", p.Description)
	}
	if p.Deadline.Set || p.Priority.Set || p.TimeEstimate.Set {
		t.Error("omitted fields should stay unset")
	}
	if p.Empty() {
		t.Error("Empty() = true, want false")
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"title":"Buy milk","description":null}` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestUpdatePayload_Empty(t *testing.T) {
	if !(UpdatePayload{}).Empty() {
		t.Error("zero payload should be empty")
	}
	p := UpdatePayload{TimeEstimate: Value(30)}
	if p.Empty() {
		t.Error("payload with time estimate should not be empty")
	}
	if got := p.TimeEstimate.Ptr(); got == nil || *got != 30 {
		t.Errorf("Ptr() = %v, want 30", got)
	}
	if Null[int]().Ptr() != nil {
		t.Error("Null().Ptr() should be nil")
	}
}
